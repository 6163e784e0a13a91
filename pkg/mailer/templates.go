package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type OTPData struct {
	AppName          string
	Name             string
	OTP              string
	ExpiresInMinutes int
}

type OrderLine struct {
	Name     string
	Quantity int
	SubTotal string
}

type OrderConfirmationData struct {
	Name    string
	OrderID string
	Items   []OrderLine
	Total   string
}

func VerifyEmailMessage(to string, data OTPData) (Message, error) {
	html, err := render("verify_email.html", data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Verify your %s account", data.AppName),
		Text:    fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", data.OTP, data.ExpiresInMinutes),
		HTML:    html,
	}, nil
}

func ForgotPasswordMessage(to string, data OTPData) (Message, error) {
	html, err := render("forgot_password.html", data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "Reset your password",
		Text:    fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.", data.OTP, data.ExpiresInMinutes),
		HTML:    html,
	}, nil
}

func OrderConfirmationMessage(to string, data OrderConfirmationData) (Message, error) {
	html, err := render("order_confirmation.html", data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Order %s confirmed", data.OrderID),
		Text:    fmt.Sprintf("Thanks for your order %s. Total paid: %s.", data.OrderID, data.Total),
		HTML:    html,
	}, nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
