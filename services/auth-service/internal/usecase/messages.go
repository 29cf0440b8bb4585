package usecase

import (
	"fmt"
	"time"
)

func confirmationMessage(username, link string, validFor time.Duration) (string, string) {
	subject := "e-mail confirmation"
	body := fmt.Sprintf(
		"dear %s, please follow the link below to confirm your e-mail address.\n\n%s\n\n"+
			"this link is valid for %s. if you did not make this request, you can ignore this message.",
		username, link, humanDuration(validFor),
	)

	return subject, body
}

func passwordChangedMessage(username string) (string, string) {
	subject := "your password was changed."
	body := fmt.Sprintf(
		"dear %s, your password was changed. if you are aware of this action, there is nothing to"+
			" worry about. if you didn't do such action, you can use your e-mail to recover your account.",
		username,
	)

	return subject, body
}

func accountFrozenMessage(username string, gracePeriod time.Duration) (string, string) {
	subject := "your account is now frozen"
	body := fmt.Sprintf(
		"dear %s, your account is now frozen. if you have chosen to delete your account, it will be"+
			" deleted permanently after %s. in case you log in before this time passes, your account"+
			" will be reactivated. if you only chose to freeze your account, you may log in any time"+
			" to reactivate your account.",
		username, humanDuration(gracePeriod),
	)

	return subject, body
}

// humanDuration renders whole days or hours, falling back to Go's duration format.
func humanDuration(d time.Duration) string {
	const day = 24 * time.Hour

	switch {
	case d >= day && d%day == 0:
		if d == day {
			return "1 day"
		}
		return fmt.Sprintf("%d days", d/day)
	case d >= time.Hour && d%time.Hour == 0:
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", d/time.Hour)
	default:
		return d.String()
	}
}
