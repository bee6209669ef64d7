package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/gitmigrate/internal/gitrepo"
)

const (
	lockFileNameConstant               = ".gitmigrate.lock"
	mirrorDirectoryTemplateConstant    = "%s-repo"
	worktreeDirectoryTemplateConstant  = "%s-worktree"
	workspaceLockedMessageConstant     = "workspace is locked by another migration"
	emptyRootMessageConstant           = "workspace root not configured"
	outsideWorkspaceTemplateConstant   = "path %s is outside workspace %s"
	resolveRootErrorTemplateConstant   = "resolve workspace root %s: %w"
	createRootErrorTemplateConstant    = "create workspace root %s: %w"
	acquireLockErrorTemplateConstant   = "acquire workspace lock %s: %w"
	releaseLockErrorTemplateConstant   = "release workspace lock %s: %w"
	prepareParentErrorTemplateConstant = "prepare parent of %s: %w"
	removePathErrorTemplateConstant    = "remove %s: %w"
	pruneErrorTemplateConstant         = "prune %s: %w"
	staleRemovedMessageConstant        = "Removed stale directory"
	emptyDirectoryPrunedMessage        = "Removed empty directory"
	permissionFixFailedMessageConstant = "Could not make path writable"
	logFieldPathConstant               = "path"
	logFieldLockConstant               = "lock"
	lockAcquiredMessageConstant        = "Acquired workspace lock"
	directoryPermissionsConstant       = fs.FileMode(0o755)
	ownerWritableFileBitsConstant      = fs.FileMode(0o600)
	ownerWritableDirectoryBitsConstant = fs.FileMode(0o700)
)

var (
	// ErrWorkspaceLocked reports that another process holds the workspace lock.
	ErrWorkspaceLocked = errors.New(workspaceLockedMessageConstant)
	// ErrRootNotConfigured indicates an empty workspace root.
	ErrRootNotConfigured = errors.New(emptyRootMessageConstant)
)

// Paths are the ephemeral directories used to migrate one repository.
type Paths struct {
	Mirror   string
	Worktree string
}

// All lists every ephemeral path in removal order.
func (paths Paths) All() []string {
	return []string{paths.Mirror, paths.Worktree}
}

// Workspace manages ephemeral repository directories under a root.
type Workspace struct {
	root           string
	fileSystem     afero.Fs
	lock           *flock.Flock
	logger         *zap.Logger
	directoryGuard sync.Mutex
}

// New prepares a workspace rooted at root. A nil file system selects the OS file system.
func New(root string, fileSystem afero.Fs, logger *zap.Logger) (*Workspace, error) {
	if len(strings.TrimSpace(root)) == 0 {
		return nil, ErrRootNotConfigured
	}
	absoluteRoot, resolveError := filepath.Abs(root)
	if resolveError != nil {
		return nil, fmt.Errorf(resolveRootErrorTemplateConstant, root, resolveError)
	}
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if mkdirError := fileSystem.MkdirAll(absoluteRoot, directoryPermissionsConstant); mkdirError != nil {
		return nil, fmt.Errorf(createRootErrorTemplateConstant, absoluteRoot, mkdirError)
	}

	return &Workspace{
		root:       absoluteRoot,
		fileSystem: fileSystem,
		lock:       flock.New(filepath.Join(absoluteRoot, lockFileNameConstant)),
		logger:     logger,
	}, nil
}

// Root returns the absolute workspace root.
func (workspace *Workspace) Root() string {
	return workspace.root
}

// FileSystem exposes the file system used for workspace content.
func (workspace *Workspace) FileSystem() afero.Fs {
	return workspace.fileSystem
}

// Lock takes the workspace lock without blocking.
func (workspace *Workspace) Lock() error {
	locked, lockError := workspace.lock.TryLock()
	if lockError != nil {
		return fmt.Errorf(acquireLockErrorTemplateConstant, workspace.lock.Path(), lockError)
	}
	if !locked {
		return fmt.Errorf(acquireLockErrorTemplateConstant, workspace.lock.Path(), ErrWorkspaceLocked)
	}
	workspace.logger.Debug(lockAcquiredMessageConstant, zap.String(logFieldLockConstant, workspace.lock.Path()))
	return nil
}

// Unlock releases the workspace lock.
func (workspace *Workspace) Unlock() error {
	if unlockError := workspace.lock.Unlock(); unlockError != nil {
		return fmt.Errorf(releaseLockErrorTemplateConstant, workspace.lock.Path(), unlockError)
	}
	return nil
}

// PathsFor derives the ephemeral directories of a repository: <root>/<owner>/<name>-repo
// and <root>/<owner>/<name>-worktree.
func (workspace *Workspace) PathsFor(identifier gitrepo.RepositoryIdentifier) Paths {
	ownerDirectory := filepath.Join(workspace.root, identifier.Owner)
	return Paths{
		Mirror:   filepath.Join(ownerDirectory, fmt.Sprintf(mirrorDirectoryTemplateConstant, identifier.Name)),
		Worktree: filepath.Join(ownerDirectory, fmt.Sprintf(worktreeDirectoryTemplateConstant, identifier.Name)),
	}
}

// Reset clears any leftover at path and ensures its parent exists, so path can be
// handed to git clone.
func (workspace *Workspace) Reset(targetPath string) error {
	if removeError := workspace.Remove(targetPath); removeError != nil {
		return removeError
	}
	parentDirectory := filepath.Dir(targetPath)
	workspace.directoryGuard.Lock()
	defer workspace.directoryGuard.Unlock()
	if mkdirError := workspace.fileSystem.MkdirAll(parentDirectory, directoryPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(prepareParentErrorTemplateConstant, targetPath, mkdirError)
	}
	return nil
}

// Prune removes the directories between targetPath and the workspace root that
// are empty, such as the owner directory once its last repository is cleaned up.
// The root itself is kept.
func (workspace *Workspace) Prune(targetPath string) error {
	workspace.directoryGuard.Lock()
	defer workspace.directoryGuard.Unlock()

	for directory := filepath.Dir(filepath.Clean(targetPath)); workspace.contains(directory); directory = filepath.Dir(directory) {
		exists, existsError := afero.DirExists(workspace.fileSystem, directory)
		if existsError != nil {
			return fmt.Errorf(pruneErrorTemplateConstant, directory, existsError)
		}
		if !exists {
			continue
		}
		empty, emptyError := afero.IsEmpty(workspace.fileSystem, directory)
		if emptyError != nil {
			return fmt.Errorf(pruneErrorTemplateConstant, directory, emptyError)
		}
		if !empty {
			return nil
		}
		if removeError := workspace.fileSystem.Remove(directory); removeError != nil && !os.IsNotExist(removeError) {
			return fmt.Errorf(pruneErrorTemplateConstant, directory, removeError)
		}
		workspace.logger.Debug(emptyDirectoryPrunedMessage, zap.String(logFieldPathConstant, directory))
	}
	return nil
}

// Remove deletes path recursively after granting the owner write access to every
// entry. A missing path is not an error. Paths outside the workspace are refused.
func (workspace *Workspace) Remove(targetPath string) error {
	if !workspace.contains(targetPath) {
		return fmt.Errorf(outsideWorkspaceTemplateConstant, targetPath, workspace.root)
	}

	if _, statError := workspace.fileSystem.Stat(targetPath); statError != nil {
		if os.IsNotExist(statError) {
			return nil
		}
		return fmt.Errorf(removePathErrorTemplateConstant, targetPath, statError)
	}

	_ = afero.Walk(workspace.fileSystem, targetPath, func(walkedPath string, info fs.FileInfo, walkError error) error {
		if walkError != nil || info == nil {
			return nil
		}
		writableMode := info.Mode().Perm() | ownerWritableFileBitsConstant
		if info.IsDir() {
			writableMode = info.Mode().Perm() | ownerWritableDirectoryBitsConstant
		}
		if writableMode != info.Mode().Perm() {
			if chmodError := workspace.fileSystem.Chmod(walkedPath, writableMode); chmodError != nil {
				workspace.logger.Debug(permissionFixFailedMessageConstant, zap.String(logFieldPathConstant, walkedPath), zap.Error(chmodError))
			}
		}
		return nil
	})

	if removeError := workspace.fileSystem.RemoveAll(targetPath); removeError != nil {
		return fmt.Errorf(removePathErrorTemplateConstant, targetPath, removeError)
	}
	workspace.logger.Debug(staleRemovedMessageConstant, zap.String(logFieldPathConstant, targetPath))
	return nil
}

func (workspace *Workspace) contains(targetPath string) bool {
	relativePath, relativeError := filepath.Rel(workspace.root, filepath.Clean(targetPath))
	if relativeError != nil {
		return false
	}
	return relativePath != "." && relativePath != ".." && !strings.HasPrefix(relativePath, ".."+string(filepath.Separator))
}
