package app

import (
	"context"

	"github.com/lumen-lang/lumen/domain"
	servicepkg "github.com/lumen-lang/lumen/service"
)

// CheckUseCase orchestrates the compile check workflow.
type CheckUseCase struct {
	service    domain.CheckService
	fileHelper *FileHelper
}

// NewCheckUseCase creates a new check use case.
func NewCheckUseCase() *CheckUseCase {
	return &CheckUseCase{
		service:    servicepkg.NewCheckService(),
		fileHelper: NewFileHelper(),
	}
}

// Execute performs the complete check workflow.
func (uc *CheckUseCase) Execute(ctx context.Context, req domain.CheckRequest) (*domain.CheckResult, error) {
	if req.OutputFormat == "" {
		req.OutputFormat = domain.OutputFormatText
	}

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

	result, err := uc.service.Check(ctx, req)
	if err != nil {
		return nil, domain.NewLoweringError("compile check failed", err)
	}

	return result, nil
}

// CheckUseCaseBuilder provides a builder pattern for creating CheckUseCase.
type CheckUseCaseBuilder struct {
	service    domain.CheckService
	fileHelper *FileHelper
}

// NewCheckUseCaseBuilder creates a new builder.
func NewCheckUseCaseBuilder() *CheckUseCaseBuilder {
	return &CheckUseCaseBuilder{}
}

// WithService sets the check service.
func (b *CheckUseCaseBuilder) WithService(service domain.CheckService) *CheckUseCaseBuilder {
	b.service = service
	return b
}

// WithFileHelper sets the file helper.
func (b *CheckUseCaseBuilder) WithFileHelper(fileHelper *FileHelper) *CheckUseCaseBuilder {
	b.fileHelper = fileHelper
	return b
}

// Build creates the CheckUseCase with the configured dependencies.
func (b *CheckUseCaseBuilder) Build() (*CheckUseCase, error) {
	uc := &CheckUseCase{
		service:    b.service,
		fileHelper: b.fileHelper,
	}

	if uc.service == nil {
		uc.service = servicepkg.NewCheckService()
	}
	if uc.fileHelper == nil {
		uc.fileHelper = NewFileHelper()
	}

	return uc, nil
}
