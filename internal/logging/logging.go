// Package logging builds the logger used by the CLI.
package logging

import (
	"io"

	"github.com/go-logr/logr"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// New returns a console logger writing to w. Verbose enables development
// mode, which includes V(1) messages.
func New(verbose bool, w io.Writer) logr.Logger {
	return zap.New(
		zap.UseDevMode(verbose),
		zap.WriteTo(w),
		zap.ConsoleEncoder(),
	).WithName("icspmerge")
}
