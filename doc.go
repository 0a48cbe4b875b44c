// Package main is the entry point for identilink, the external identity
// resolution and linking engine. It maps identities reported by external
// collaboration providers (Slack, Microsoft Teams, Google Workspace) onto
// internal member accounts of a multi-tenant organization, either linking
// them automatically or raising suggestions for human review.
package main
