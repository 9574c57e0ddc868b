package docmanager

import (
	"errors"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mkalva/DocIngestAPI/internal/config"
	"github.com/mkalva/DocIngestAPI/pkg/logger_i"
)

var (
	ErrEmptyFilename  = errors.New("empty filename")
	ErrUnsafeFilename = errors.New("filename resolves outside the input directory")
)

// DefaultExtensions mirrors what the extraction layer can actually parse.
var DefaultExtensions = []string{".pdf", ".docx", ".txt", ".rtf", ".odt"}

// Manager owns the input directory and the supported-extension set.
// Every filesystem path used by the intake handlers goes through it.
type Manager struct {
	inputDir   string
	supported  map[string]bool
	extensions []string
	Locks      *PathLocks
	logger     *logger_i.Logger
}

func NewManager(inputDir string, extensions []string) *Manager {
	supported := make(map[string]bool, len(extensions))
	ordered := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if !supported[ext] {
			supported[ext] = true
			ordered = append(ordered, ext)
		}
	}
	sort.Strings(ordered)

	return &Manager{
		inputDir:   inputDir,
		supported:  supported,
		extensions: ordered,
		Locks:      NewPathLocks(),
		logger:     logger_i.NewLogger("DocManager"),
	}
}

func (m *Manager) InputDir() string {
	return m.inputDir
}

func (m *Manager) EnsureInputDir() error {
	return os.MkdirAll(m.inputDir, 0750)
}

// SanitizeFilename rewrites an untrusted client filename so the resulting
// path cannot escape the input directory. It fails closed: anything that
// normalizes to nothing usable is rejected rather than guessed at.
func (m *Manager) SanitizeFilename(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyFilename
	}

	//browsers on windows send full client-side paths, keep only the leaf
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == ".." || name == "/" {
		return "", ErrUnsafeFilename
	}

	var cleaned strings.Builder
	for _, r := range name {
		if r < 0x20 || strings.ContainsRune(`<>:"|?*`, r) {
			continue
		}
		cleaned.WriteRune(r)
	}
	name = cleaned.String()
	if strings.Trim(name, ". ") == "" {
		return "", ErrUnsafeFilename
	}

	//the joined path must still resolve inside the input dir
	rel, err := filepath.Rel(m.inputDir, filepath.Join(m.inputDir, name))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		m.logger.Warn("Rejected unsafe filename", "name", name)
		return "", ErrUnsafeFilename
	}
	return name, nil
}

func (m *Manager) IsSupportedFile(name string) bool {
	return m.supported[strings.ToLower(filepath.Ext(name))]
}

// SupportedExtensions returns the whitelist for user-facing error messages.
func (m *Manager) SupportedExtensions() []string {
	return m.extensions
}

// FilePath joins an already-sanitized filename with the input directory.
func (m *Manager) FilePath(safeFilename string) string {
	return filepath.Join(m.inputDir, safeFilename)
}

func (m *Manager) MetadataPath(safeFilename string) string {
	return m.FilePath(safeFilename) + config.MetadataSuffix
}
