package types

// Version is the podrelease version, overridden at build time with
// -ldflags "-X github.com/m-mizutani/podrelease/pkg/domain/types.Version=..."
var Version = "dev"
