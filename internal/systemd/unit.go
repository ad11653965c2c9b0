package systemd

import (
	"bytes"
	"fmt"
	"text/template"
)

// unitTemplate is the supervision unit installed for the display service.
// The provisioner always renders and installs it fresh: the last run's
// user and paths win over any manual edits to the installed unit.
const unitTemplate = `[Unit]
Description=EinkPi e-ink display service
After=network-online.target
Wants=network-online.target

[Service]
User={{.User}}
WorkingDirectory={{.WorkingDir}}
ExecStart={{.PythonPath}} app.py
Restart=on-failure
RestartSec=10
StandardOutput=journal
StandardError=journal

[Install]
WantedBy=multi-user.target
`

// UnitParams are the substituted fields of the generated unit.
type UnitParams struct {
	// User is the run-as user, taken verbatim from the invoking user.
	User string
	// WorkingDir is the absolute application install directory.
	WorkingDir string
	// PythonPath is the absolute interpreter path inside the venv.
	PythonPath string
}

// RenderUnit produces the unit file contents for the given parameters.
func RenderUnit(params UnitParams) ([]byte, error) {
	tmpl, err := template.New("unit").Parse(unitTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse unit template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return nil, fmt.Errorf("render unit template: %w", err)
	}

	return buf.Bytes(), nil
}
