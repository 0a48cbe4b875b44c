// Package candidate ranks organization members against an external profile.
package candidate

import (
	"sort"
	"strings"

	"github.com/identilink/identilink/internal/db/models"
	"github.com/identilink/identilink/internal/matcher"
)

// domainBoost is added to the name-match confidence when the profile and
// member share a non-free-mail email domain.
const domainBoost = 0.10

// freeMailDomains are consumer webmail domains that carry no evidence of
// organizational affiliation. Sharing one of these never boosts a match.
var freeMailDomains = map[string]struct{}{
	"gmail.com":      {},
	"googlemail.com": {},
	"yahoo.com":      {},
	"hotmail.com":    {},
	"outlook.com":    {},
	"live.com":       {},
	"icloud.com":     {},
	"me.com":         {},
	"aol.com":        {},
	"proton.me":      {},
	"protonmail.com": {},
	"gmx.com":        {},
	"gmx.de":         {},
	"web.de":         {},
	"mail.ru":        {},
	"qq.com":         {},
	"163.com":        {},
}

// Candidate is one ranked internal-member match for an external profile.
type Candidate struct {
	Member        models.Member
	Match         matcher.Result
	Confidence    float64
	DomainBoosted bool
}

// Find ranks members against the profile's display name and email domain.
// Members yielding zero confidence are discarded. The result is sorted by
// confidence descending, ties broken by member ID ascending so ordering is
// deterministic.
func Find(members []models.Member, displayName, email string) []Candidate {
	profileDomain := emailDomain(email)
	boostable := profileDomain != "" && !isFreeMail(profileDomain)

	var candidates []Candidate

	for _, member := range members {
		memberDomain := emailDomain(member.Email)

		switch {
		case boostable && memberDomain == profileDomain:
			match := matcher.Match(displayName, member.DisplayName)
			if match.Confidence == 0 {
				continue
			}

			confidence := match.Confidence + domainBoost
			if confidence > 1.0 {
				confidence = 1.0
			}

			candidates = append(candidates, Candidate{
				Member:        member,
				Match:         match,
				Confidence:    confidence,
				DomainBoosted: true,
			})
		case displayName != "" && member.DisplayName != "":
			match := matcher.Match(displayName, member.DisplayName)
			if match.Confidence == 0 {
				continue
			}

			candidates = append(candidates, Candidate{
				Member:     member,
				Match:      match,
				Confidence: match.Confidence,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}

		return candidates[i].Member.ID < candidates[j].Member.ID
	})

	return candidates
}

func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}

	return strings.ToLower(email[at+1:])
}

func isFreeMail(domain string) bool {
	_, ok := freeMailDomains[domain]
	return ok
}
