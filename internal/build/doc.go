// Package build provides the canonical build execution pipeline for pagesmith.
//
// A build runs strictly sequenced stages: the site configuration and the
// source documents are read, documents are rendered, the output directory is
// reset (or a staging directory prepared), and pages, the index, the
// stylesheet and the static assets are written. Every invocation is a full
// rebuild. The first failing stage ends the build; its error is wrapped with
// the stage name and keeps its classification.
package build
