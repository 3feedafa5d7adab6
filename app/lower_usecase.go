package app

import (
	"context"
	"fmt"

	"github.com/lumen-lang/lumen/domain"
	servicepkg "github.com/lumen-lang/lumen/service"
)

// LowerUseCase orchestrates the lowering workflow.
type LowerUseCase struct {
	service    domain.LowerService
	fileHelper *FileHelper
}

// NewLowerUseCase creates a new lowering use case.
func NewLowerUseCase() *LowerUseCase {
	return &LowerUseCase{
		service:    servicepkg.NewLowerService(),
		fileHelper: NewFileHelper(),
	}
}

// Execute performs the complete lowering workflow.
func (uc *LowerUseCase) Execute(ctx context.Context, req domain.LowerRequest) (*domain.LowerResponse, error) {
	applyLowerDefaults(&req)

	if err := req.Validate(); err != nil {
		return nil, domain.NewInvalidInputError("invalid request", err)
	}

	files, err := ResolveFilePaths(
		uc.fileHelper,
		req.Paths,
		req.Recursive,
		req.IncludePatterns,
		req.ExcludePatterns,
	)
	if err != nil {
		return nil, domain.NewFileNotFoundError("failed to collect files", err)
	}

	if len(files) == 0 {
		return nil, domain.NewInvalidInputError("no Lumen source files found in the specified paths", nil)
	}

	req.Paths = files

	resp, err := uc.service.Lower(ctx, req)
	if err != nil {
		return nil, domain.NewLoweringError("lowering failed", err)
	}

	return resp, nil
}

// LowerFile compiles a single source file.
func (uc *LowerUseCase) LowerFile(ctx context.Context, filePath string, req domain.LowerRequest) (*domain.LowerResponse, error) {
	applyLowerDefaults(&req)

	if !uc.fileHelper.IsValidSourceFile(filePath) {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("not a valid Lumen source file: %s", filePath), nil)
	}

	exists, err := uc.fileHelper.FileExists(filePath)
	if err != nil {
		return nil, domain.NewFileNotFoundError(filePath, err)
	}
	if !exists {
		return nil, domain.NewFileNotFoundError(filePath, fmt.Errorf("file does not exist"))
	}

	resp, err := uc.service.LowerFile(ctx, filePath, req)
	if err != nil {
		return nil, domain.NewLoweringError("lowering failed", err)
	}

	return resp, nil
}

func applyLowerDefaults(req *domain.LowerRequest) {
	if req.OutputFormat == "" {
		req.OutputFormat = domain.OutputFormatText
	}
	if req.SortBy == "" {
		req.SortBy = domain.SortByLocation
	}
}

// LowerUseCaseBuilder provides a builder pattern for creating LowerUseCase.
type LowerUseCaseBuilder struct {
	service    domain.LowerService
	fileHelper *FileHelper
}

// NewLowerUseCaseBuilder creates a new builder.
func NewLowerUseCaseBuilder() *LowerUseCaseBuilder {
	return &LowerUseCaseBuilder{}
}

// WithService sets the lowering service.
func (b *LowerUseCaseBuilder) WithService(service domain.LowerService) *LowerUseCaseBuilder {
	b.service = service
	return b
}

// WithFileHelper sets the file helper.
func (b *LowerUseCaseBuilder) WithFileHelper(fileHelper *FileHelper) *LowerUseCaseBuilder {
	b.fileHelper = fileHelper
	return b
}

// Build creates the LowerUseCase with the configured dependencies.
func (b *LowerUseCaseBuilder) Build() (*LowerUseCase, error) {
	uc := &LowerUseCase{
		service:    b.service,
		fileHelper: b.fileHelper,
	}

	if uc.service == nil {
		uc.service = servicepkg.NewLowerService()
	}
	if uc.fileHelper == nil {
		uc.fileHelper = NewFileHelper()
	}

	return uc, nil
}
