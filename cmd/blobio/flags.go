package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// FlagLoader resolves configuration values. An explicitly set CLI flag
// wins; otherwise viper's order applies: env > default.
type FlagLoader struct {
	cmd *cobra.Command
	v   *viper.Viper
}

// NewFlagLoader creates a FlagLoader for cmd backed by v.
func NewFlagLoader(cmd *cobra.Command, v *viper.Viper) *FlagLoader {
	return &FlagLoader{cmd: cmd, v: v}
}

// String returns the flag value if set, otherwise the viper value.
func (f *FlagLoader) String(name string) string {
	if f.cmd.Flags().Changed(name) {
		val, _ := f.cmd.Flags().GetString(name)
		return val
	}
	return f.v.GetString(name)
}

// Int returns the flag value if set, otherwise the viper value.
func (f *FlagLoader) Int(name string) int {
	if f.cmd.Flags().Changed(name) {
		val, _ := f.cmd.Flags().GetInt(name)
		return val
	}
	return f.v.GetInt(name)
}

// Int64 returns the flag value if set, otherwise the viper value.
func (f *FlagLoader) Int64(name string) int64 {
	if f.cmd.Flags().Changed(name) {
		val, _ := f.cmd.Flags().GetInt64(name)
		return val
	}
	return f.v.GetInt64(name)
}

// Bool returns the flag value if set, otherwise the viper value.
func (f *FlagLoader) Bool(name string) bool {
	if f.cmd.Flags().Changed(name) {
		val, _ := f.cmd.Flags().GetBool(name)
		return val
	}
	return f.v.GetBool(name)
}
