// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"strings"
)

const exampleYAML = `# fanout batch configuration
command: "python3 main.py"
working_directory: ./worker
count: 10
max_parallel: 4
timeout: 5m
poll_interval: 2s
output_dir: results
report_format: json
isolate_workdirs: false
no_shell: false
kill_on_cancel: false
metrics_file: results/fanout.prom
env:
  API_MODE: batch
`

const exampleHCL = `# fanout batch configuration
command           = "python3 main.py"
working_directory = "./worker"
count             = 10
max_parallel      = 4
timeout           = "5m"
poll_interval     = "2s"
output_dir        = "results"
report_format     = "json"
isolate_workdirs  = false
no_shell          = false
kill_on_cancel    = false
metrics_file      = "results/fanout.prom"

env = {
  API_MODE = "batch"
  HOME_DIR = env.HOME
}
`

// Example returns an example configuration file in the given format, yaml or hcl.
func Example(format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "yaml", "yml":
		return exampleYAML, nil
	case "hcl":
		return exampleHCL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, format)
	}
}
