package dice

import "go.uber.org/zap"

// LoggedSource wraps a Source and logs every draw at debug level.
type LoggedSource struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedSource creates a Source that draws from src and logs each value to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedSource(src Source, logger *zap.Logger) *LoggedSource {
	if src == nil {
		panic("dice.NewLoggedSource: src must not be nil")
	}
	if logger == nil {
		panic("dice.NewLoggedSource: logger must not be nil")
	}
	return &LoggedSource{src: src, logger: logger}
}

// Intn draws from the wrapped source and logs the bound and result.
func (l *LoggedSource) Intn(n int) int {
	v := l.src.Intn(n)
	l.logger.Debug("random int",
		zap.Int("n", n),
		zap.Int("value", v),
	)
	return v
}

// Float64 draws from the wrapped source and logs the result.
func (l *LoggedSource) Float64() float64 {
	v := l.src.Float64()
	l.logger.Debug("random float", zap.Float64("value", v))
	return v
}
