package build_info

// Set with -ldflags "-X github.com/sonar-protocol/kiosk-syncer/src/utils/build_info.Version=..."
var Version = "dev"
