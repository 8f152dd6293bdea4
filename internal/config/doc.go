// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config loads the optional batch configuration file.
//
// The file may be YAML (.yaml, .yml) or HCL (.hcl, or HCL's JSON syntax in .json).
// HCL files can reference the environment through the env object, e.g.
// `command = "python3 ${env.HOME}/main.py"`. Files are read from the local file
// system or fetched with go-getter.
package config
