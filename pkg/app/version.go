package app

import (
	"strings"
)

// VERSION holds the version information with the following logic in mind
//
//	1 ... fixed
//	0 ... feature release
//	0 ... fix
//	the date after the + is always the first of the month
//
// VERSION differs from semantic versioning as described in https://semver.org/
// but we keep the correct syntax.
const (
	VERSION = "1.0.0+20261001"
	MODULE  = "logicprobe"
)

// Version is the get application version as string.
func Version() string {
	return strings.TrimSpace(MODULE + " V" + strings.Split(VERSION, "+")[0])
}
