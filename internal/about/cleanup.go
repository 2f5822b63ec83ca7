package about

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Clean removes the generated folder when CleanFolderAfterBuild is set. It does not
// touch the filesystem otherwise. A missing folder is not an error.
func Clean(fs afero.Fs, opts Options) error {
	if !opts.CleanFolderAfterBuild {
		log.Debug().Str("path", opts.FolderPath).Msg("Keeping generated folder")
		return nil
	}

	if err := fs.RemoveAll(opts.FolderPath); err != nil {
		return fmt.Errorf("removing generated folder %s: %w", opts.FolderPath, err)
	}

	log.Debug().Str("path", opts.FolderPath).Msg("Removed generated folder")
	return nil
}
