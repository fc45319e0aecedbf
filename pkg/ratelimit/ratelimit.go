package ratelimit

import (
	"context"
	"time"
)

// Decision é o resultado de uma verificação de limite para um chamador
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter conta requisições por identidade (ID do usuário ou IP) em janelas fixas
type Limiter interface {
	Check(ctx context.Context, key string) (Decision, error)
}

// Sweeper é implementado pelos limiters que guardam estado no processo
type Sweeper interface {
	Sweep(now time.Time) int
	Len() int
}
