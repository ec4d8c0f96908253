package dqengine

import "go.uber.org/zap"

// InitLogging installs a production zap logger as the package-global
// logger, in the style of forma's cmd/server/main.go
// (zap.NewProduction + zap.ReplaceGlobals + zap.S()). Engine methods
// log through zap.S() rather than holding their own *zap.Logger, so
// callers that already manage a global logger can skip this and call
// zap.ReplaceGlobals themselves before constructing an Engine.
func InitLogging() (func(), error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return func() { _ = logger.Sync() }, nil
}

// InitDevelopmentLogging installs a development zap logger (console
// encoding, debug level, stack traces on warn+) — for cmd/dqrepl and
// tests.
func InitDevelopmentLogging() (func(), error) {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return func() { _ = logger.Sync() }, nil
}
