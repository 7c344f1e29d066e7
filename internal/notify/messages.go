package notify

import (
	"fmt"
	"time"

	"github.com/hmanprod/fleetmada/internal/models"
)

// Links to the list pages a notification opens.
const (
	ServiceRemindersLink = "/reminders/service"
	VehicleRenewalsLink  = "/reminders/vehicle-renewals"
)

const displayDateLayout = "02/01/2006"

func reminderDueText(vehicle, task string, due time.Time, days int) (string, string) {
	return fmt.Sprintf("Rappel de service: %s", vehicle),
		fmt.Sprintf("Le service \"%s\" pour %s est dû dans %d jour(s) (%s).", task, vehicle, days, due.Format(displayDateLayout))
}

func reminderOverdueText(vehicle, task string, due time.Time, days int) (string, string) {
	return fmt.Sprintf("Service en retard: %s", vehicle),
		fmt.Sprintf("Le service \"%s\" pour %s est en retard de %d jour(s) (dû le %s).", task, vehicle, days, due.Format(displayDateLayout))
}

func renewalDueText(vehicle string, t models.RenewalType, due time.Time, days int) (string, string) {
	return fmt.Sprintf("Renouvellement dû: %s", vehicle),
		fmt.Sprintf("Le %s pour %s est dû dans %d jour(s) (%s).", t.Label(), vehicle, days, due.Format(displayDateLayout))
}

func renewalOverdueText(vehicle string, t models.RenewalType, due time.Time, days int) (string, string) {
	return fmt.Sprintf("Renouvellement en retard: %s", vehicle),
		fmt.Sprintf("Le %s pour %s est en retard de %d jour(s) (dû le %s).", t.Label(), vehicle, days, due.Format(displayDateLayout))
}
