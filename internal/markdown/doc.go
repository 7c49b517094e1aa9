// Package markdown turns raw content files into structured documents: it
// splits the delimited front matter block from the Markdown body, validates
// required metadata, and converts Markdown into HTML via goldmark.
package markdown
