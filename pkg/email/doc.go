// Package email sends transactional mail.
//
// EmailSender has two implementations: the Postmark client used in deployed
// environments and DevSender, which writes each message to a directory as an
// .html body plus a .json metadata file. Message bodies are templ components
// from the templates subpackage rendered to HTML strings.
package email
