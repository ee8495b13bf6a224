// Package workspace persists a study's file inventory on disk.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/socstudy-cli/internal/study"
	"github.com/KaramelBytes/socstudy-cli/internal/utils"
)

// FileName is the workspace manifest inside the workspace directory.
const FileName = "study.json"

// Role says which record table a data file holds.
type Role string

const (
	RoleAnimals      Role = "animals"
	RoleMeasurements Role = "measurements"
	RoleTreatments   Role = "treatments"
	RoleGroups       Role = "groups"
)

// Roles in load order.
var Roles = []Role{RoleAnimals, RoleMeasurements, RoleTreatments, RoleGroups}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Roles {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q (want animals, measurements, treatments or groups)", s)
}

// DataFile is one registered table.
type DataFile struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	Role        Role      `json:"role"`
	Description string    `json:"description,omitempty"`
	Rows        int       `json:"rows"`
	AddedAt     time.Time `json:"added_at"`
}

// Workspace is a study persisted on disk.
type Workspace struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Study       study.Info           `json:"study"`
	Files       map[string]*DataFile `json:"files"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`

	rootDir string
}

// New constructs an in-memory workspace. Call Save to persist.
func New(name, description, rootDir string) *Workspace {
	now := time.Now()
	return &Workspace{
		Name:        name,
		Description: description,
		Study:       study.Info{StudyNumber: name},
		Files:       make(map[string]*DataFile),
		CreatedAt:   now,
		UpdatedAt:   now,
		rootDir:     rootDir,
	}
}

// Load reads study.json from dir.
func Load(dir string) (*Workspace, error) {
	path := filepath.Join(dir, FileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("workspace not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read workspace: %w", err)
	}
	var w Workspace
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("parse workspace: %w", err)
	}
	if w.Files == nil {
		w.Files = make(map[string]*DataFile)
	}
	w.rootDir = dir
	return &w, nil
}

// RootDir returns the workspace directory.
func (w *Workspace) RootDir() string { return w.rootDir }

// Save writes study.json atomically.
func (w *Workspace) Save() error {
	if w.rootDir == "" {
		return errors.New("workspace root directory not set")
	}
	if err := utils.EnsureDir(w.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	w.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(w)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(w.rootDir, FileName), data)
}

// AddFile registers a data file under a role. Relative paths are resolved
// against the working directory.
func (w *Workspace) AddFile(path string, role Role, description string) (*DataFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat data file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	for _, f := range w.Files {
		if f.Path == abs && f.Role == role {
			return nil, fmt.Errorf("%s already registered as %s (%s)", f.Name, role, f.ID)
		}
	}
	f := &DataFile{
		ID:          uuid.NewString(),
		Path:        abs,
		Name:        filepath.Base(abs),
		Role:        role,
		Description: description,
		AddedAt:     time.Now(),
	}
	if w.Files == nil {
		w.Files = make(map[string]*DataFile)
	}
	w.Files[f.ID] = f
	w.UpdatedAt = f.AddedAt
	return f, nil
}

// RemoveFile drops a registered file by id.
func (w *Workspace) RemoveFile(id string) error {
	if _, ok := w.Files[id]; !ok {
		return fmt.Errorf("no file with id %s", id)
	}
	delete(w.Files, id)
	w.UpdatedAt = time.Now()
	return nil
}

// FilesByRole returns the files of one role, oldest first.
func (w *Workspace) FilesByRole(role Role) []*DataFile {
	var out []*DataFile
	for _, f := range w.Files {
		if f.Role == role {
			out = append(out, f)
		}
	}
	sortFiles(out)
	return out
}

// SortedFiles returns every file ordered by role then age.
func (w *Workspace) SortedFiles() []*DataFile {
	var out []*DataFile
	for _, r := range Roles {
		out = append(out, w.FilesByRole(r)...)
	}
	return out
}

func sortFiles(files []*DataFile) {
	sort.Slice(files, func(i, j int) bool {
		if !files[i].AddedAt.Equal(files[j].AddedAt) {
			return files[i].AddedAt.Before(files[j].AddedAt)
		}
		return files[i].Name < files[j].Name
	})
}

// List returns the names of the workspaces under root.
func List(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, e.Name(), FileName)); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
