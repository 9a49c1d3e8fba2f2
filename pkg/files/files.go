// Package files places user supplied files (attachments, cover images,
// background images) in the board directories under the save root, and stages
// copies in a temp directory for the clipboard.
//
// Stored paths use forward slashes. Files of a board live at
//
//	Files/<boardId>/<uuid>_<filename>
//
// relative to the save root; staged files live at <tempDir>/Takma/<uuid>_<filename>.
package files

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// FilesDir is the directory below the save root holding one directory per board.
	FilesDir = "Files"
	// TempDirName is the directory below the OS temp dir used for staging and thumbnails.
	TempDirName = "Takma"
	// MaxFilenameLength is the longest filename most filesystems accept.
	MaxFilenameLength = 255
	// Separator joins the uuid prefix and the original filename.
	Separator = "_"
)

const uuidLength = 36

// Manager copies files in and out of the managed directories.
type Manager struct {
	saveRoot string
	tempRoot string
}

// NewManager manages board files below saveRoot and staged files below tempDir/Takma.
func NewManager(saveRoot, tempDir string) *Manager {
	return &Manager{
		saveRoot: filepath.Clean(saveRoot),
		tempRoot: filepath.Join(tempDir, TempDirName),
	}
}

// SaveRoot is the directory that relative paths are resolved against.
func (m *Manager) SaveRoot() string {
	return m.saveRoot
}

// TempRoot is the directory holding staged files and the thumbnail cache.
func (m *Manager) TempRoot() string {
	return m.tempRoot
}

// BoardDirectory returns the relative directory holding the files of a board.
func BoardDirectory(boardID string) string {
	return path.Join(FilesDir, boardID)
}

// SaveToBoardDirectory copies src into the directory of the board and returns
// the new path relative to the save root. An empty filename keeps the name of src.
func (m *Manager) SaveToBoardDirectory(src, boardID, filename string) (string, error) {
	if boardID == "" {
		return "", errors.New("error saving file to board directory: empty board id")
	}

	rel := path.Join(BoardDirectory(boardID), prefixedName(src, filename))

	if err := copyFile(m.Resolve(src), m.Resolve(rel)); err != nil {
		return "", fmt.Errorf("error saving %s to board %s: %w", src, boardID, err)
	}

	log.Debug().Str("src", src).Str("dst", rel).Msg("saved file to board directory")

	return rel, nil
}

// SaveToTempDirectory copies src into the staging directory and returns the absolute new path.
// Used by copy operations whose destination board is not known yet.
func (m *Manager) SaveToTempDirectory(src, filename string) (string, error) {
	dst := filepath.Join(m.tempRoot, prefixedName(src, filename))

	if err := copyFile(m.Resolve(src), dst); err != nil {
		return "", fmt.Errorf("error staging %s: %w", src, err)
	}

	log.Debug().Str("src", src).Str("dst", dst).Msg("staged file in temp directory")

	return filepath.ToSlash(dst), nil
}

// Remove deletes a single managed file. Removing a file that is already gone is not an error.
func (m *Manager) Remove(p string) error {
	if p == "" {
		return nil
	}

	err := os.Remove(m.Resolve(p))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error removing %s: %w", p, err)
	}

	return nil
}

// RemoveBoardDirectory deletes the directory of a board with everything in it.
func (m *Manager) RemoveBoardDirectory(boardID string) error {
	if boardID == "" {
		return errors.New("error removing board directory: empty board id")
	}

	if err := os.RemoveAll(m.Resolve(BoardDirectory(boardID))); err != nil {
		return fmt.Errorf("error removing directory of board %s: %w", boardID, err)
	}

	return nil
}

// Resolve returns the absolute location of a stored path.
func (m *Manager) Resolve(p string) string {
	if filepath.IsAbs(p) || filepath.IsAbs(filepath.FromSlash(p)) {
		return filepath.FromSlash(p)
	}

	return filepath.Join(m.saveRoot, filepath.FromSlash(p))
}

// Exists reports whether a stored path points at an existing file.
func (m *Manager) Exists(p string) bool {
	if p == "" {
		return false
	}

	_, err := os.Stat(m.Resolve(p))

	return err == nil
}

// IsManaged reports whether p lives in a directory owned by the app: the
// board files below the save root or the staging directory. Files elsewhere
// belong to the user and must never be duplicated or deleted.
func (m *Manager) IsManaged(p string) bool {
	p = normalizeSlashes(p)
	if p == "" {
		return false
	}

	if !path.IsAbs(p) && !filepath.IsAbs(filepath.FromSlash(p)) {
		return strings.HasPrefix(path.Clean(p), FilesDir+"/")
	}

	abs := filepath.Clean(filepath.FromSlash(p))

	return isBelow(abs, filepath.Join(m.saveRoot, FilesDir)) || isBelow(abs, m.tempRoot)
}

// isBelow reports whether p is strictly inside dir once both are cleaned.
func isBelow(p, dir string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}

	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func normalizeSlashes(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// Filename returns the last element of a path written with either slash style.
func Filename(p string) string {
	p = normalizeSlashes(p)

	return p[strings.LastIndex(p, "/")+1:]
}

// OriginalFilename strips the uuid prefix added when the file was saved.
// Names without a valid uuid prefix are returned unchanged.
func OriginalFilename(p string) string {
	name := Filename(p)
	if len(name) <= uuidLength {
		return name
	}

	if _, err := uuid.Parse(name[:uuidLength]); err != nil {
		return name
	}

	// older saves concatenated uuid and filename without a separator
	return strings.TrimPrefix(name[uuidLength:], Separator)
}

// TrimLongFilename shortens filenames longer than MaxFilenameLength bytes,
// keeping the extension. Cuts never split a multi-byte character.
func TrimLongFilename(name string) string {
	if len(name) < MaxFilenameLength {
		return name
	}

	dot := strings.LastIndex(name, ".")
	if dot == -1 || len(name)-dot >= MaxFilenameLength {
		return name[:runeBoundary(name, MaxFilenameLength)]
	}

	ext := name[dot:]

	return name[:runeBoundary(name, MaxFilenameLength-len(ext))] + ext
}

// runeBoundary moves n back to the start of the character it falls in.
func runeBoundary(s string, n int) int {
	for n > 0 && n < len(s) && !utf8.RuneStart(s[n]) {
		n--
	}

	return n
}

func prefixedName(src, filename string) string {
	if filename == "" {
		filename = OriginalFilename(src)
	}

	return TrimLongFilename(uuid.NewString() + Separator + filename)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o666)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()

		return err
	}

	return out.Close()
}
