package markdowncmd

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const importDirectoryMessageType = "blog.markdown.import_directory"

var shortNamePattern = regexp.MustCompile(`^\S*$`)

// ImportDirectoryCommand imports every Markdown document under Directory as
// blog posts, upserting by route.
type ImportDirectoryCommand struct {
	// Directory is resolved relative to the markdown service base path.
	Directory string `json:"directory"`
	// DefaultCategory applies to documents whose front matter names none.
	DefaultCategory string `json:"default_category,omitempty"`
	// DefaultAuthor is a blogger short name used when front matter names none.
	DefaultAuthor           string `json:"default_author,omitempty"`
	CreateMissingCategories bool   `json:"create_missing_categories,omitempty"`
	DryRun                  bool   `json:"dry_run,omitempty"`
}

// Type implements command.Message.
func (ImportDirectoryCommand) Type() string { return importDirectoryMessageType }

// Validate ensures directory input is present before handlers execute.
func (cmd ImportDirectoryCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Directory, validation.Required, validation.By(func(value any) error {
			if strings.TrimSpace(value.(string)) == "" {
				return validation.NewError("blog.markdown.import_directory.directory_required", "directory is required")
			}
			return nil
		})),
		validation.Field(&cmd.DefaultAuthor, validation.Match(shortNamePattern).
			Error("short names cannot contain whitespace")),
	)
}
