package jiraapi

import (
	"fmt"
	"sort"
	"strings"
)

const (
	statusErrorTemplateConstant             = "%s returned status %d"
	statusErrorWithMessagesTemplateConstant = "%s returned status %d: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"
	errorMessageSeparatorConstant           = "; "
	errorFieldMessageTemplateConstant       = "%s: %s"
)

// InvalidInputError surfaces validation issues for client inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// StatusError reports a non-success response from the tracker API.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Messages   []string
}

// Error summarizes the failed endpoint, status code, and tracker messages.
func (statusError StatusError) Error() string {
	if len(statusError.Messages) == 0 {
		return fmt.Sprintf(statusErrorTemplateConstant, statusError.Endpoint, statusError.StatusCode)
	}
	return fmt.Sprintf(
		statusErrorWithMessagesTemplateConstant,
		statusError.Endpoint,
		statusError.StatusCode,
		strings.Join(statusError.Messages, errorMessageSeparatorConstant),
	)
}

func collectErrorMessages(payload errorResponsePayload) []string {
	messages := make([]string, 0, len(payload.ErrorMessages)+len(payload.Errors))
	messages = append(messages, payload.ErrorMessages...)

	fieldNames := make([]string, 0, len(payload.Errors))
	for fieldName := range payload.Errors {
		fieldNames = append(fieldNames, fieldName)
	}
	sort.Strings(fieldNames)
	for _, fieldName := range fieldNames {
		messages = append(messages, fmt.Sprintf(errorFieldMessageTemplateConstant, fieldName, payload.Errors[fieldName]))
	}

	return messages
}
