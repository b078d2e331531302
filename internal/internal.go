// Package internal has configuration processing, logging and small
// helpers shared by the commands and the report pipeline.
package internal
