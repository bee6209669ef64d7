// Package utils holds the plumbing shared by the gitmigrate commands: the Viper-backed
// ConfigurationLoader, the zap LoggerFactory, the CommandContextAccessor that carries
// root flag values into subcommands, and the FlushingWriter used for console output.
package utils
