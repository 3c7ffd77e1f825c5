package tui

import (
	"github.com/csheth/tumorscope/internal/upload"
	"github.com/csheth/tumorscope/internal/workflow"
)

type stage int

const (
	stageMain stage = iota
	stagePrompt
)

const heroTagline = "Upload an MRI scan for tumor classification, uncertainty metrics and visual explanations."

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	promptPlaceholder         = "Path to a JPG or PNG image…"
)

type analysisDoneMsg struct {
	file    upload.File
	outcome workflow.Outcome
}

type historySavedMsg struct {
	path string
	err  error
}

type dropMsg struct {
	path string
}

type dropClosedMsg struct{}

type toastExpiredMsg struct {
	id int
}
