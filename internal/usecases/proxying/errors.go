package proxying

import (
	"fmt"
	"strings"
)

// ValidationError aponta um campo inválido da requisição. Vários são agregados com multierr.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// DomainError é a checagem local de cada ação (ex: business_id obrigatório só para business_ad_accounts)
type DomainError struct {
	Action  Action
	Fields  []string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func missingParam(action Action, fields ...string) *DomainError {
	return &DomainError{
		Action:  action,
		Fields:  fields,
		Message: fmt.Sprintf("%s é obrigatório para a ação %s", strings.Join(fields, " ou "), action),
	}
}
