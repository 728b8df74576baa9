package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

var verifyEmailTmpl = template.Must(template.New("verify").Parse(`<p>Hola {{.FullName}},</p>
<p>Gracias por registrarte en {{.SiteName}}. Confirma tu direccion de correo haciendo clic en el siguiente enlace:</p>
<p><a href="{{.VerifyURL}}">Verificar correo</a></p>
<p>El enlace caduca en 24 horas. Si no solicitaste esta cuenta puedes ignorar este mensaje.</p>`))

func SendRegisterVerification(sender MailSender, siteName string, toEmail string, fullName string, verifyURL string) error {
	var body bytes.Buffer
	err := verifyEmailTmpl.Execute(&body, map[string]string{
		"FullName":  fullName,
		"SiteName":  siteName,
		"VerifyURL": verifyURL,
	})
	if err != nil {
		return err
	}
	return sender.Send(&Message{
		To:      []string{toEmail},
		Subject: fmt.Sprintf("Verifica tu correo en %s", siteName),
		Body:    body.String(),
		IsHTML:  true,
	})
}
