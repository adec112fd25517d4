// Package config loads YAML configuration for schemaflow deployments:
// provider selection and credentials, completion defaults, and logging.
// Values in the file may reference environment variables with ${VAR}
// syntax; defaults fill anything the file leaves out.
package config
