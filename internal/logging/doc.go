// Package logger provides logging for storjcli commands and the bridge layer.
//
// Command output uses a small leveled Logger with semantic prefixes and
// colors. The bridge client and the local bridge server log through zap,
// built by NewZap at a configurable level that defaults to silent.
//
// # Verbosity Levels
//
// Command logging is controlled by two flags:
//
//   - --verbose: Shows info and warning messages
//   - --debug: Shows all messages including debug details and errors
//
// Without flags, only critical warnings are shown.
//
// # Log Methods
//
//	Logger.Infof()          // Shown with --verbose or --debug
//	Logger.Debugf()         // Shown only with --debug
//	Logger.Warnf()          // Shown with --verbose or --debug
//	Logger.WarnfAlways()    // Always shown (critical warnings)
//	Logger.Errorf()         // Shown with --debug
//	Logger.ErrorfAndReturn() // Errorf, then returns the message as an error
//
// # Usage
//
//	log := Logger{Verbose: verbose, Debug: debug}
//	log.Infof("Uploading %d files", count)
//
//	client := bridge.NewClient(bridge.Options{Logger: NewZap("info")})
package logger
