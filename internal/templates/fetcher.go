package templates

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/temirov/gitmigrate/internal/buildsystem"
	"github.com/temirov/gitmigrate/internal/githubcli"
)

const (
	templateFileNameTemplateConstant       = "%s-ci.yml"
	templateNotFoundMessageConstant        = "workflow template not found"
	readerNotConfiguredMessageConstant     = "template reader not configured"
	repositoryNotConfiguredMessageConstant = "template repository not configured"
	fetchErrorTemplateConstant             = "fetch %s from %s@%s: %w"
	notMappingMessageConstant              = "template is not a YAML mapping"
	missingJobsMessageConstant             = "template does not define jobs"
	invalidYAMLTemplateConstant            = "template is not valid YAML: %w"
	jobsKeyConstant                        = "jobs"
	templateFetchedMessageConstant         = "Fetched workflow template"
	templateMissingMessageConstant         = "Workflow template missing"
	templateFetchFailedMessageConstant     = "Workflow template fetch failed"
	templateInvalidMessageConstant         = "Workflow template failed validation; injecting verbatim"
	logFieldBuildSystemConstant            = "build_system"
	logFieldTemplatePathConstant           = "template_path"
	logFieldTemplateRepositoryConstant     = "template_repository"
)

var (
	// ErrTemplateNotFound reports that no template exists for a build system.
	ErrTemplateNotFound = errors.New(templateNotFoundMessageConstant)
	// ErrReaderNotConfigured indicates the fetcher was constructed without a content reader.
	ErrReaderNotConfigured = errors.New(readerNotConfiguredMessageConstant)
	// ErrRepositoryNotConfigured indicates the template store coordinates are missing.
	ErrRepositoryNotConfigured = errors.New(repositoryNotConfiguredMessageConstant)
)

// Store locates the centralized workflow templates.
type Store struct {
	Repository string
	Branch     string
	Path       string
}

// FileContentReader downloads raw file content from a hosted repository.
type FileContentReader interface {
	GetFileContents(executionContext context.Context, repository string, branch string, filePath string) ([]byte, error)
}

// Template is a fetched workflow document for one build system.
type Template struct {
	BuildSystem buildsystem.Tag
	FileName    string
	Content     []byte
}

// Attempt records one lookup made during selection.
type Attempt struct {
	BuildSystem buildsystem.Tag
	Error       error
}

// Selection is the outcome of trying build systems in order.
type Selection struct {
	Template *Template
	Misses   []Attempt
}

// Found reports whether a template was selected.
func (selection Selection) Found() bool {
	return selection.Template != nil
}

// FileName returns the conventional template file name for a build system.
func FileName(tag buildsystem.Tag) string {
	return fmt.Sprintf(templateFileNameTemplateConstant, tag)
}

// Fetcher reads templates from the configured store.
type Fetcher struct {
	reader FileContentReader
	store  Store
	logger *zap.Logger
}

// NewFetcher constructs a Fetcher.
func NewFetcher(reader FileContentReader, store Store, logger *zap.Logger) (*Fetcher, error) {
	if reader == nil {
		return nil, ErrReaderNotConfigured
	}
	if len(strings.TrimSpace(store.Repository)) == 0 {
		return nil, ErrRepositoryNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{reader: reader, store: store, logger: logger}, nil
}

// Fetch downloads the template for tag. A missing template yields ErrTemplateNotFound;
// other failures are returned wrapped so callers can report them.
func (fetcher *Fetcher) Fetch(executionContext context.Context, tag buildsystem.Tag) (Template, error) {
	fileName := FileName(tag)
	templatePath := path.Join(fetcher.store.Path, fileName)

	content, fetchError := fetcher.reader.GetFileContents(executionContext, fetcher.store.Repository, fetcher.store.Branch, templatePath)
	if fetchError != nil {
		if errors.Is(fetchError, githubcli.ErrNotFound) {
			return Template{}, fmt.Errorf(fetchErrorTemplateConstant, templatePath, fetcher.store.Repository, fetcher.store.Branch, ErrTemplateNotFound)
		}
		return Template{}, fmt.Errorf(fetchErrorTemplateConstant, templatePath, fetcher.store.Repository, fetcher.store.Branch, fetchError)
	}

	logFields := []zap.Field{
		zap.String(logFieldBuildSystemConstant, string(tag)),
		zap.String(logFieldTemplatePathConstant, templatePath),
		zap.String(logFieldTemplateRepositoryConstant, fetcher.store.Repository),
	}
	if validationError := Validate(content); validationError != nil {
		fetcher.logger.Warn(templateInvalidMessageConstant, append(logFields, zap.Error(validationError))...)
	}
	fetcher.logger.Debug(templateFetchedMessageConstant, logFields...)

	return Template{BuildSystem: tag, FileName: fileName, Content: content}, nil
}

// Select tries tags in order and returns the first template found. Every failed
// lookup before it is reported in Misses; templates are never merged.
func (fetcher *Fetcher) Select(executionContext context.Context, tags []buildsystem.Tag) Selection {
	selection := Selection{}
	for _, tag := range tags {
		template, fetchError := fetcher.Fetch(executionContext, tag)
		if fetchError == nil {
			selection.Template = &template
			return selection
		}

		logFields := []zap.Field{zap.String(logFieldBuildSystemConstant, string(tag)), zap.Error(fetchError)}
		if errors.Is(fetchError, ErrTemplateNotFound) {
			fetcher.logger.Info(templateMissingMessageConstant, logFields...)
		} else {
			fetcher.logger.Warn(templateFetchFailedMessageConstant, logFields...)
		}
		selection.Misses = append(selection.Misses, Attempt{BuildSystem: tag, Error: fetchError})

		if executionContext.Err() != nil {
			return selection
		}
	}
	return selection
}

// Validate checks that content is a YAML mapping defining jobs.
func Validate(content []byte) error {
	var document yaml.Node
	if decodeError := yaml.Unmarshal(content, &document); decodeError != nil {
		return fmt.Errorf(invalidYAMLTemplateConstant, decodeError)
	}
	if document.Kind != yaml.DocumentNode || len(document.Content) == 0 || document.Content[0].Kind != yaml.MappingNode {
		return errors.New(notMappingMessageConstant)
	}

	mapping := document.Content[0]
	for keyIndex := 0; keyIndex+1 < len(mapping.Content); keyIndex += 2 {
		if mapping.Content[keyIndex].Value == jobsKeyConstant {
			return nil
		}
	}
	return errors.New(missingJobsMessageConstant)
}
