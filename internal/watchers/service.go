package watchers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/jira_scripts/internal/jiraapi"
)

const (
	// The snapshot and copy phases test set membership only, so the
	// watcher queries skip the shared ordering clause.
	watcherQueryTemplateConstant = `watcher = "%s"`

	sourceAccountFieldNameConstant = "source_user_id"
	targetAccountFieldNameConstant = "target_user_id"
	requiredValueMessageConstant   = "value required"
	distinctValueMessageConstant   = "must differ from source_user_id"
	invalidInputTemplateConstant   = "%s: %s"

	iteratorMissingMessageConstant  = "issue iterator not configured"
	adderMissingMessageConstant     = "watcher adder not configured"
	directoryMissingMessageConstant = "user directory not configured"

	sourceUserLookupErrorTemplateConstant = "unable to resolve source user: %w"
	targetUserLookupErrorTemplateConstant = "unable to resolve target user: %w"
	snapshotPhaseErrorTemplateConstant    = "unable to snapshot watched issues: %w"
	copyPhaseErrorTemplateConstant        = "unable to scan source watched issues: %w"

	copyStartedMessageConstant        = "copying watchers"
	snapshotPhaseMessageConstant      = "fetching issues watched by target user"
	snapshotCompletedMessageConstant  = "target user watch set collected"
	alreadyWatchingDebugMessage       = "issue already watched by target user"
	dryRunAddWatcherMessageConstant   = "[DRY RUN] would add watcher"
	addingWatcherMessageConstant      = "adding watcher"
	addWatcherFailedMessageConstant   = "failed to add watcher"
	copyCompletedMessageConstant      = "watcher copy completed"
	logFieldIssueKeyConstant          = "issue_key"
	logFieldSourceEmailConstant       = "source_email"
	logFieldTargetEmailConstant       = "target_email"
	logFieldTargetAccountConstant     = "target_user_id"
	logFieldDryRunConstant            = "dry_run"
	logFieldAlreadyWatchingConstant   = "already_watching"
	logFieldWatchersAddedConstant     = "watchers_added"
	logFieldFailedAdditionsConstant   = "failed_additions"
)

// IssueIterator walks every issue matching a query.
type IssueIterator interface {
	ForEachIssue(executionContext context.Context, jqlQuery string, visit func(jiraapi.Issue) error) error
}

// WatcherAdder subscribes an account as a watcher of an issue.
type WatcherAdder interface {
	AddWatcher(executionContext context.Context, issueKey string, accountID string) error
}

// UserDirectory resolves tracker accounts.
type UserDirectory interface {
	User(executionContext context.Context, accountID string) (jiraapi.User, error)
}

// InvalidInputError describes watcher-copy option validation failures.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputTemplateConstant, inputError.FieldName, inputError.Message)
}

// ServiceDependencies describes required collaborators for watcher copying.
type ServiceDependencies struct {
	Logger    *zap.Logger
	Iterator  IssueIterator
	Adder     WatcherAdder
	Directory UserDirectory
}

// Options configures a watcher-copy run.
type Options struct {
	SourceAccountID string
	TargetAccountID string
	ApplyChanges    bool
}

// Result captures the observable outcomes of a watcher-copy run.
type Result struct {
	AlreadyWatching int
	WatchersAdded   int
	FailedAdditions int
}

// Service copies watcher subscriptions between accounts.
type Service struct {
	logger    *zap.Logger
	iterator  IssueIterator
	adder     WatcherAdder
	directory UserDirectory
}

var (
	errIteratorMissing  = errors.New(iteratorMissingMessageConstant)
	errAdderMissing     = errors.New(adderMissingMessageConstant)
	errDirectoryMissing = errors.New(directoryMissingMessageConstant)
)

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Iterator == nil {
		return nil, errIteratorMissing
	}
	if dependencies.Adder == nil {
		return nil, errAdderMissing
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
		adder:     dependencies.Adder,
		directory: dependencies.Directory,
	}

	return service, nil
}

// Execute copies watcher subscriptions in two phases: a read-only
// snapshot of the target account's current watch set, then a scan of
// the source account's watched issues adding the target everywhere it
// is not already subscribed. Addition failures are recorded per issue
// and never abort the scan.
func (service *Service) Execute(executionContext context.Context, options Options) (Result, error) {
	if validationError := service.validateOptions(options); validationError != nil {
		return Result{}, validationError
	}

	sourceUser, sourceUserError := service.directory.User(executionContext, options.SourceAccountID)
	if sourceUserError != nil {
		return Result{}, fmt.Errorf(sourceUserLookupErrorTemplateConstant, sourceUserError)
	}

	targetUser, targetUserError := service.directory.User(executionContext, options.TargetAccountID)
	if targetUserError != nil {
		return Result{}, fmt.Errorf(targetUserLookupErrorTemplateConstant, targetUserError)
	}

	service.logger.Info(
		copyStartedMessageConstant,
		zap.String(logFieldSourceEmailConstant, sourceUser.EmailAddress),
		zap.String(logFieldTargetEmailConstant, targetUser.EmailAddress),
		zap.Bool(logFieldDryRunConstant, !options.ApplyChanges),
	)

	service.logger.Info(
		snapshotPhaseMessageConstant,
		zap.String(logFieldTargetEmailConstant, targetUser.EmailAddress),
	)

	targetWatchedKeys, snapshotError := service.collectWatchedKeys(executionContext, options.TargetAccountID)
	if snapshotError != nil {
		return Result{}, fmt.Errorf(snapshotPhaseErrorTemplateConstant, snapshotError)
	}

	service.logger.Info(
		snapshotCompletedMessageConstant,
		zap.Int(logFieldAlreadyWatchingConstant, len(targetWatchedKeys)),
	)

	result := Result{AlreadyWatching: len(targetWatchedKeys)}

	sourceQuery := fmt.Sprintf(watcherQueryTemplateConstant, options.SourceAccountID)
	copyError := service.iterator.ForEachIssue(executionContext, sourceQuery, func(issue jiraapi.Issue) error {
		if _, alreadyWatching := targetWatchedKeys[issue.Key]; alreadyWatching {
			service.logger.Debug(
				alreadyWatchingDebugMessage,
				zap.String(logFieldIssueKeyConstant, issue.Key),
				zap.String(logFieldTargetEmailConstant, targetUser.EmailAddress),
			)
			return nil
		}

		service.addWatcher(executionContext, options, issue, &result)
		return nil
	})
	if copyError != nil {
		return Result{}, fmt.Errorf(copyPhaseErrorTemplateConstant, copyError)
	}

	service.logger.Info(
		copyCompletedMessageConstant,
		zap.Int(logFieldAlreadyWatchingConstant, result.AlreadyWatching),
		zap.Int(logFieldWatchersAddedConstant, result.WatchersAdded),
		zap.Int(logFieldFailedAdditionsConstant, result.FailedAdditions),
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

func (service *Service) collectWatchedKeys(executionContext context.Context, accountID string) (map[string]struct{}, error) {
	watchedKeys := map[string]struct{}{}

	watcherQuery := fmt.Sprintf(watcherQueryTemplateConstant, accountID)
	iterationError := service.iterator.ForEachIssue(executionContext, watcherQuery, func(issue jiraapi.Issue) error {
		watchedKeys[issue.Key] = struct{}{}
		return nil
	})
	if iterationError != nil {
		return nil, iterationError
	}

	return watchedKeys, nil
}

func (service *Service) addWatcher(executionContext context.Context, options Options, issue jiraapi.Issue, result *Result) {
	if !options.ApplyChanges {
		service.logger.Info(
			dryRunAddWatcherMessageConstant,
			zap.String(logFieldIssueKeyConstant, issue.Key),
			zap.String(logFieldTargetAccountConstant, options.TargetAccountID),
		)
		return
	}

	service.logger.Info(
		addingWatcherMessageConstant,
		zap.String(logFieldIssueKeyConstant, issue.Key),
		zap.String(logFieldTargetAccountConstant, options.TargetAccountID),
	)

	if additionError := service.adder.AddWatcher(executionContext, issue.Key, options.TargetAccountID); additionError != nil {
		result.FailedAdditions++
		service.logger.Error(
			addWatcherFailedMessageConstant,
			zap.String(logFieldIssueKeyConstant, issue.Key),
			zap.Error(additionError),
		)
		return
	}

	result.WatchersAdded++
}
