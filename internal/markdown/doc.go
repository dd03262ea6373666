// Package markdown renders post bodies with goldmark and imports posts from
// directories of front-matter Markdown files.
package markdown
