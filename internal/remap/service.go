package remap

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/jira_scripts/internal/jiraapi"
	"github.com/temirov/jira_scripts/internal/search"
)

const (
	creatorFieldNameConstant  = "creator"
	assigneeFieldNameConstant = "assignee"
	reporterFieldNameConstant = "reporter"

	sourceAccountFieldNameConstant = "source_user_id"
	targetAccountFieldNameConstant = "target_user_id"
	requiredValueMessageConstant   = "value required"
	distinctValueMessageConstant   = "must differ from source_user_id"

	iteratorMissingMessageConstant  = "issue iterator not configured"
	updaterMissingMessageConstant   = "issue updater not configured"
	directoryMissingMessageConstant = "user directory not configured"

	currentUserLookupErrorTemplateConstant = "unable to resolve authenticated user: %w"
	targetUserLookupErrorTemplateConstant  = "unable to resolve target user: %w"
	invalidInputTemplateConstant           = "%s: %s"

	remapStartedMessageConstant        = "remapping user references"
	authenticatedUserMessageConstant   = "authenticated user resolved"
	sourceMismatchWarningConstant      = "source user is not the authenticated user"
	targetUserResolvedMessageConstant  = "target user resolved"
	processingIssueMessageConstant     = "processing issue"
	dryRunUpdateMessageConstant        = "[DRY RUN] would update issue"
	applyingUpdateMessageConstant      = "updating issue"
	updateFailedMessageConstant        = "failed to update issue"
	remapCompletedMessageConstant      = "user remap completed"
	logFieldIssueKeyConstant           = "issue_key"
	logFieldStagedFieldsConstant       = "staged_fields"
	logFieldAccountIDConstant          = "account_id"
	logFieldEmailAddressConstant       = "email_address"
	logFieldSourceAccountConstant      = "source_user_id"
	logFieldTargetAccountConstant      = "target_user_id"
	logFieldDryRunConstant             = "dry_run"
	logFieldIssuesScannedConstant      = "issues_scanned"
	logFieldIssuesUpdatedConstant      = "issues_updated"
	logFieldFailedUpdatesConstant      = "failed_updates"
	logFieldAuthenticatedAccountField  = "authenticated_user_id"
)

// IssueIterator walks every issue matching a query.
type IssueIterator interface {
	ForEachIssue(executionContext context.Context, jqlQuery string, visit func(jiraapi.Issue) error) error
}

// IssueUpdater applies partial field updates to issues.
type IssueUpdater interface {
	UpdateIssue(executionContext context.Context, issueKey string, fields map[string]any) error
}

// UserDirectory resolves tracker accounts.
type UserDirectory interface {
	CurrentUser(executionContext context.Context) (jiraapi.User, error)
	User(executionContext context.Context, accountID string) (jiraapi.User, error)
}

// InvalidInputError describes remap option validation failures.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputTemplateConstant, inputError.FieldName, inputError.Message)
}

// ServiceDependencies describes required collaborators for remapping.
type ServiceDependencies struct {
	Logger    *zap.Logger
	Iterator  IssueIterator
	Updater   IssueUpdater
	Directory UserDirectory
}

// Options configures a remap run.
type Options struct {
	SourceAccountID string
	TargetAccountID string
	SeedQuery       string
	Cutoff          *time.Time
	ApplyChanges    bool
}

// Result captures the observable outcomes of a remap run.
type Result struct {
	IssuesScanned int
	IssuesUpdated int
	FailedUpdates int
}

// Service reassigns issue ownership fields between accounts.
type Service struct {
	logger    *zap.Logger
	iterator  IssueIterator
	updater   IssueUpdater
	directory UserDirectory
}

var (
	errIteratorMissing  = errors.New(iteratorMissingMessageConstant)
	errUpdaterMissing   = errors.New(updaterMissingMessageConstant)
	errDirectoryMissing = errors.New(directoryMissingMessageConstant)
)

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Iterator == nil {
		return nil, errIteratorMissing
	}
	if dependencies.Updater == nil {
		return nil, errUpdaterMissing
	}
	if dependencies.Directory == nil {
		return nil, errDirectoryMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	service := &Service{
		logger:    logger,
		iterator:  dependencies.Iterator,
		updater:   dependencies.Updater,
		directory: dependencies.Directory,
	}

	return service, nil
}

// Execute scans matching issues and remaps ownership fields from the
// source account to the target account. Update failures are recorded
// per issue and never abort the scan.
func (service *Service) Execute(executionContext context.Context, options Options) (Result, error) {
	if validationError := service.validateOptions(options); validationError != nil {
		return Result{}, validationError
	}

	service.logger.Info(
		remapStartedMessageConstant,
		zap.String(logFieldSourceAccountConstant, options.SourceAccountID),
		zap.String(logFieldTargetAccountConstant, options.TargetAccountID),
		zap.Bool(logFieldDryRunConstant, !options.ApplyChanges),
	)

	authenticatedUser, currentUserError := service.directory.CurrentUser(executionContext)
	if currentUserError != nil {
		return Result{}, fmt.Errorf(currentUserLookupErrorTemplateConstant, currentUserError)
	}

	service.logger.Info(
		authenticatedUserMessageConstant,
		zap.String(logFieldAccountIDConstant, authenticatedUser.AccountID),
		zap.String(logFieldEmailAddressConstant, authenticatedUser.EmailAddress),
	)

	// Advisory only: remapping someone else's references is legitimate,
	// but usually the operator remaps their own account.
	if options.SourceAccountID != authenticatedUser.AccountID {
		service.logger.Warn(
			sourceMismatchWarningConstant,
			zap.String(logFieldSourceAccountConstant, options.SourceAccountID),
			zap.String(logFieldAuthenticatedAccountField, authenticatedUser.AccountID),
		)
	}

	targetUser, targetUserError := service.directory.User(executionContext, options.TargetAccountID)
	if targetUserError != nil {
		return Result{}, fmt.Errorf(targetUserLookupErrorTemplateConstant, targetUserError)
	}

	service.logger.Info(
		targetUserResolvedMessageConstant,
		zap.String(logFieldAccountIDConstant, targetUser.AccountID),
		zap.String(logFieldEmailAddressConstant, targetUser.EmailAddress),
	)

	composedQuery := search.BuildQuery(options.SeedQuery, options.Cutoff)

	result := Result{}

	iterationError := service.iterator.ForEachIssue(executionContext, composedQuery, func(issue jiraapi.Issue) error {
		result.IssuesScanned++
		service.processIssue(executionContext, options, issue, &result)
		return nil
	})
	if iterationError != nil {
		return Result{}, iterationError
	}

	service.logger.Info(
		remapCompletedMessageConstant,
		zap.Int(logFieldIssuesScannedConstant, result.IssuesScanned),
		zap.Int(logFieldIssuesUpdatedConstant, result.IssuesUpdated),
		zap.Int(logFieldFailedUpdatesConstant, result.FailedUpdates),
	)

	return result, nil
}

func (service *Service) validateOptions(options Options) error {
	if len(strings.TrimSpace(options.SourceAccountID)) == 0 {
		return InvalidInputError{FieldName: sourceAccountFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(options.TargetAccountID)) == 0 {
		return InvalidInputError{FieldName: targetAccountFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if options.SourceAccountID == options.TargetAccountID {
		return InvalidInputError{FieldName: targetAccountFieldNameConstant, Message: distinctValueMessageConstant}
	}
	return nil
}

func (service *Service) processIssue(executionContext context.Context, options Options, issue jiraapi.Issue, result *Result) {
	service.logger.Debug(processingIssueMessageConstant, zap.String(logFieldIssueKeyConstant, issue.Key))

	stagedFields := stageOwnershipUpdates(issue, options.SourceAccountID, options.TargetAccountID)
	if len(stagedFields) == 0 {
		return
	}

	if !options.ApplyChanges {
		service.logger.Info(
			dryRunUpdateMessageConstant,
			zap.String(logFieldIssueKeyConstant, issue.Key),
			zap.Strings(logFieldStagedFieldsConstant, stagedFieldNames(stagedFields)),
		)
		return
	}

	service.logger.Info(
		applyingUpdateMessageConstant,
		zap.String(logFieldIssueKeyConstant, issue.Key),
		zap.Strings(logFieldStagedFieldsConstant, stagedFieldNames(stagedFields)),
	)

	if updateError := service.updater.UpdateIssue(executionContext, issue.Key, stagedFields); updateError != nil {
		result.FailedUpdates++
		service.logger.Error(
			updateFailedMessageConstant,
			zap.String(logFieldIssueKeyConstant, issue.Key),
			zap.Error(updateError),
		)
		return
	}

	result.IssuesUpdated++
}

// stageOwnershipUpdates collects the ownership fields whose account
// matches the source; the three checks are independent, not exclusive.
func stageOwnershipUpdates(issue jiraapi.Issue, sourceAccountID string, targetAccountID string) map[string]any {
	stagedFields := map[string]any{}
	targetReference := jiraapi.UserReference{AccountID: targetAccountID}

	if issue.Fields.Creator.AccountID == sourceAccountID {
		stagedFields[creatorFieldNameConstant] = targetReference
	}
	if issue.Fields.Assignee != nil && issue.Fields.Assignee.AccountID == sourceAccountID {
		stagedFields[assigneeFieldNameConstant] = targetReference
	}
	if issue.Fields.Reporter != nil && issue.Fields.Reporter.AccountID == sourceAccountID {
		stagedFields[reporterFieldNameConstant] = targetReference
	}

	return stagedFields
}

func stagedFieldNames(stagedFields map[string]any) []string {
	fieldNames := make([]string, 0, len(stagedFields))
	for fieldName := range stagedFields {
		fieldNames = append(fieldNames, fieldName)
	}
	sort.Strings(fieldNames)
	return fieldNames
}
