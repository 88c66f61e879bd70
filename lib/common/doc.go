// Package common holds the ambient pieces shared by the libraries and the
// command line: the leveled logger used by every package and the model
// configuration.
//
// Logging goes through the dragonboat logger package. Packages obtain a named
// logger once (`var log = logger.GetLogger("model")`) and InitLoggers installs a
// factory producing lines of the form
//
//	2025/01/01 12:00:00 INFO  | model           | attached map+a1 at root.users
//
// and sets the level of all module loggers from ModelConfig.LogLevel.
package common
