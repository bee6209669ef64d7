package buildsystem

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/gitmigrate/internal/githubcli"
)

const (
	noneDetectedLabelConstant             = "No common build system detected."
	tagSeparatorConstant                  = ", "
	noBuildSystemMessageConstant          = "could not determine build system"
	inspectorNotConfiguredMessageConstant = "repository inspector not configured"
	detectionErrorTemplateConstant        = "build system detection failed for %s: %v"
)

// Tag identifies a recognized build toolchain.
type Tag string

// Indicator proves the presence of Tag when Fragment appears in a top-level entry name.
type Indicator struct {
	Tag      Tag
	Fragment string
}

var (
	// ErrNoBuildSystem reports a repository whose top-level entries match no indicator.
	ErrNoBuildSystem = errors.New(noBuildSystemMessageConstant)
	// ErrInspectorNotConfigured indicates the detector was constructed without a repository inspector.
	ErrInspectorNotConfigured = errors.New(inspectorNotConfiguredMessageConstant)
)

// DefaultIndicators returns the indicator table in detection order.
func DefaultIndicators() []Indicator {
	return []Indicator{
		{Tag: "maven", Fragment: "pom.xml"},
		{Tag: "gradle", Fragment: "build.gradle"},
		{Tag: "npm", Fragment: "package.json"},
		{Tag: "yarn", Fragment: "yarn.lock"},
		{Tag: "make", Fragment: "Makefile"},
		{Tag: "cmake", Fragment: "CMakeLists.txt"},
		{Tag: "bazel", Fragment: "BUILD"},
		{Tag: "go", Fragment: "go.mod"},
		{Tag: "rust", Fragment: "Cargo.toml"},
		{Tag: "python_setuptools", Fragment: "setup.py"},
		{Tag: "python_pip", Fragment: "requirements.txt"},
		{Tag: "python_pyproject", Fragment: "pyproject.toml"},
		{Tag: "ruby_bundler", Fragment: "Gemfile"},
		{Tag: "ruby_gem", Fragment: ".gemspec"},
		{Tag: "dotNET_CS", Fragment: ".csproj"},
		{Tag: "dotNET_VB", Fragment: ".vbproj"},
		{Tag: "dotNET_FS", Fragment: ".fsproj"},
		{Tag: "dotNET_Solution", Fragment: ".sln"},
		{Tag: "dotNET_SDK", Fragment: "global.json"},
		{Tag: "dotNET_NuGet", Fragment: "packages.config"},
	}
}

// Detect returns every tag whose fragment is contained in at least one entry name,
// in indicator order and without duplicates.
func Detect(entryNames []string, indicators []Indicator) []Tag {
	detectedTags := []Tag{}
	seenTags := map[Tag]struct{}{}
	for _, indicator := range indicators {
		if len(indicator.Fragment) == 0 {
			continue
		}
		if _, seen := seenTags[indicator.Tag]; seen {
			continue
		}
		for _, entryName := range entryNames {
			if strings.Contains(entryName, indicator.Fragment) {
				detectedTags = append(detectedTags, indicator.Tag)
				seenTags[indicator.Tag] = struct{}{}
				break
			}
		}
	}
	return detectedTags
}

// Result captures what is known about a repository after detection.
type Result struct {
	PrimaryLanguage string
	BuildSystems    []Tag
	DefaultBranch   string
	SizeKB          int64
}

// NoneDetected reports whether no build system matched.
func (result Result) NoneDetected() bool {
	return len(result.BuildSystems) == 0
}

// String joins the detected tags, or returns the none-detected label.
func (result Result) String() string {
	if result.NoneDetected() {
		return noneDetectedLabelConstant
	}
	tagNames := make([]string, 0, len(result.BuildSystems))
	for _, tag := range result.BuildSystems {
		tagNames = append(tagNames, string(tag))
	}
	return strings.Join(tagNames, tagSeparatorConstant)
}

// DetectionError reports that the repository could not be inspected.
type DetectionError struct {
	Repository string
	Cause      error
}

// Error describes the detection failure.
func (detectionError DetectionError) Error() string {
	return fmt.Sprintf(detectionErrorTemplateConstant, detectionError.Repository, detectionError.Cause)
}

// Unwrap exposes the underlying cause.
func (detectionError DetectionError) Unwrap() error {
	return detectionError.Cause
}

// RepositoryInspector exposes the hosting calls the detector needs.
type RepositoryInspector interface {
	ResolveRepoMetadata(executionContext context.Context, repository string) (githubcli.RepositoryMetadata, error)
	ListRootEntries(executionContext context.Context, repository string) ([]string, error)
}

// Detector reads a repository through the hosting API and classifies it.
type Detector struct {
	inspector  RepositoryInspector
	indicators []Indicator
}

// NewDetector constructs a Detector. A nil indicator table selects DefaultIndicators.
func NewDetector(inspector RepositoryInspector, indicators []Indicator) (*Detector, error) {
	if inspector == nil {
		return nil, ErrInspectorNotConfigured
	}
	if indicators == nil {
		indicators = DefaultIndicators()
	}
	return &Detector{inspector: inspector, indicators: indicators}, nil
}

// Detect resolves language, default branch and size, then matches the top-level listing.
// An empty BuildSystems slice is a successful outcome; DetectionError is returned only
// when the repository could not be read.
func (detector *Detector) Detect(executionContext context.Context, repository string) (Result, error) {
	metadata, metadataError := detector.inspector.ResolveRepoMetadata(executionContext, repository)
	if metadataError != nil {
		return Result{}, DetectionError{Repository: repository, Cause: metadataError}
	}

	entryNames, listingError := detector.inspector.ListRootEntries(executionContext, repository)
	if listingError != nil {
		return Result{}, DetectionError{Repository: repository, Cause: listingError}
	}

	return Result{
		PrimaryLanguage: metadata.PrimaryLanguage,
		BuildSystems:    Detect(entryNames, detector.indicators),
		DefaultBranch:   metadata.DefaultBranch,
		SizeKB:          metadata.DiskUsageKB,
	}, nil
}
