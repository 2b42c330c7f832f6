package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// OperatorAlert is the data rendered into an operator alert e-mail.
type OperatorAlert struct {
	Message string
	SentAt  time.Time
}

var operatorAlertTmpl = template.Must(template.New("operatorAlert").Parse(operatorAlertHTML))

// RenderOperatorAlert returns the subject, plain-text and HTML bodies of an
// operator alert.
func RenderOperatorAlert(a OperatorAlert) (subject, text, html string, err error) {
	var body bytes.Buffer
	if err := operatorAlertTmpl.Execute(&body, a); err != nil {
		return "", "", "", fmt.Errorf("render operator alert: %w", err)
	}
	subject = "Alerta de monitoramento de carga"
	text = fmt.Sprintf("%s\n\nEnviado em %s", a.Message, a.SentAt.UTC().Format(time.RFC3339))
	return subject, text, body.String(), nil
}

const operatorAlertHTML = `
<!DOCTYPE html>
<html>
<head>
	<title>Alerta de monitoramento</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>Alerta de monitoramento de carga</h2>
	<p>{{.Message}}</p>
	<p style="color: #666;">Enviado em {{.SentAt.UTC.Format "2006-01-02 15:04:05 MST"}}</p>
</body>
</html>
`
