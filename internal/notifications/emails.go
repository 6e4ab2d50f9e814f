package notifications

import (
	"fmt"
	"html"
	"strings"

	dbtypes "github.com/flipearn/flipearn-backend/pkg/db/types"
	"github.com/flipearn/flipearn-backend/pkg/mailer"
)

func purchaseEmail(buyerEmail, buyerName, listingTitle, username, platform string, fields dbtypes.CredentialFields) mailer.Message {
	handle := accountHandle(username, platform)

	var plain strings.Builder
	fmt.Fprintf(&plain, "Your purchase of %q (%s) is complete.\n\n", listingTitle, handle)
	plain.WriteString("Account credentials:\n")
	plain.WriteString(credentialLines(fields))
	plain.WriteString("\nChange the password as soon as you log in.\n")

	var body strings.Builder
	fmt.Fprintf(&body, "<p>Your purchase of <strong>%s</strong> (%s) is complete.</p>",
		html.EscapeString(listingTitle), html.EscapeString(handle))
	body.WriteString("<p>Account credentials:</p>")
	body.WriteString(credentialTable(fields))
	body.WriteString("<p>Change the password as soon as you log in.</p>")

	return mailer.Message{
		ToEmail:   buyerEmail,
		ToName:    buyerName,
		Subject:   fmt.Sprintf("Your %s account is ready", platform),
		PlainBody: plain.String(),
		HTMLBody:  body.String(),
	}
}

func listingDeletedEmail(ownerEmail, ownerName, listingTitle, username, platform string, original, updated dbtypes.CredentialFields) mailer.Message {
	handle := accountHandle(username, platform)

	var plain strings.Builder
	fmt.Fprintf(&plain, "Your listing %q (%s) was removed. The escrowed credentials are returned below.\n\n", listingTitle, handle)
	plain.WriteString("Credentials as submitted:\n")
	plain.WriteString(credentialLines(original))
	plain.WriteString("\nCurrent credentials:\n")
	plain.WriteString(credentialLines(updated))

	var body strings.Builder
	fmt.Fprintf(&body, "<p>Your listing <strong>%s</strong> (%s) was removed. The escrowed credentials are returned below.</p>",
		html.EscapeString(listingTitle), html.EscapeString(handle))
	body.WriteString("<p>Credentials as submitted:</p>")
	body.WriteString(credentialTable(original))
	body.WriteString("<p>Current credentials:</p>")
	body.WriteString(credentialTable(updated))

	return mailer.Message{
		ToEmail:   ownerEmail,
		ToName:    ownerName,
		Subject:   fmt.Sprintf("Listing removed: %s", listingTitle),
		PlainBody: plain.String(),
		HTMLBody:  body.String(),
	}
}

func withdrawalRequestedEmail(opsEmail, userEmail string, amountCents int64, withdrawalID string) mailer.Message {
	plain := fmt.Sprintf(
		"Withdrawal %s requested by %s for $%.2f. Review it in the admin dashboard.\n",
		withdrawalID, userEmail, float64(amountCents)/100,
	)
	return mailer.Message{
		ToEmail:   opsEmail,
		Subject:   "Withdrawal request pending review",
		PlainBody: plain,
	}
}

// accountHandle renders "@username on instagram", or just the platform when
// the listing predates username capture.
func accountHandle(username, platform string) string {
	if username == "" {
		return platform
	}
	return fmt.Sprintf("@%s on %s", username, platform)
}

func credentialLines(fields dbtypes.CredentialFields) string {
	if len(fields) == 0 {
		return "(none)\n"
	}
	var b strings.Builder
	for _, field := range fields {
		fmt.Fprintf(&b, "%s: %s\n", field.Name, field.Value)
	}
	return b.String()
}

func credentialTable(fields dbtypes.CredentialFields) string {
	if len(fields) == 0 {
		return "<p>(none)</p>"
	}
	var b strings.Builder
	b.WriteString("<table>")
	for _, field := range fields {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td></tr>",
			html.EscapeString(field.Name), html.EscapeString(field.Value))
	}
	b.WriteString("</table>")
	return b.String()
}
