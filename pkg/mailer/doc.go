// Package mailer renders transactional emails from markdown templates and
// hands them to a Sender.
//
// Templates are markdown files with optional YAML frontmatter, executed with
// text/template, converted to HTML by goldmark and wrapped in an HTML
// layout. A link whose title is "button" renders as a call-to-action:
//
//	---
//	Subject: Sign in to {{.SiteName}}
//	---
//	Hi {{.Name}},
//
//	[Sign in]({{.ActionURL}} "button")
//
// Subject resolution order is SendParams.Subject, the template's Subject
// metadata, then Config.FallbackSubject. Subjects are templates too.
package mailer
