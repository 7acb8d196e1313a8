package dialogue

import (
	"fmt"
	"strings"
)

const (
	msgVerifyRetry = "Just to confirm, am I speaking with the correct person?"
	msgWrongPerson = "Sorry for the inconvenience. I'll end the call now."

	msgOfferNeighbor = "No problem. If you won't be available, " +
		"we can deliver the parcel to a neighbor or security. " +
		"Would that be okay?"
	msgDateRetry = "I didn't catch a valid date. " +
		"You can choose one of the dates I mentioned, " +
		"or tell me if you won't be available."

	msgAskDateAgain     = "Alright. Please tell me which date works for you."
	msgConfirmDateRetry = "Please confirm if the delivery date is okay."

	msgAskNeighborName  = "Sure. Please tell me the name of the neighbor or security who can receive the parcel."
	msgCancelled        = "Alright. We'll cancel this delivery attempt for now. You can reschedule later. Thank you."
	msgNeighborRetry    = "Would you like us to deliver the parcel to a neighbor or security?"
	msgNameRetry        = "Please tell me the neighbor's name."
	msgNeighborBooked   = "Perfect. The parcel will be delivered to your neighbor. Thank you for informing them in advance."
	msgAskNameAgain     = "No problem. Please tell me the correct neighbor name."
	msgConfirmNameRetry = "Please confirm if we should deliver the parcel to the neighbor."

	msgClose = "Thank you for your time. Have a good day."
)

func greeting(customerName string) string {
	return fmt.Sprintf("Hello, am I speaking with %s?", customerName)
}

func offerDates(dates []string) string {
	return "We attempted delivery earlier but couldn't reach you. " +
		fmt.Sprintf("The next available delivery dates are %s. ", strings.Join(dates, ", ")) +
		"Which date would you prefer?"
}

func confirmDate(date string) string {
	return fmt.Sprintf("Just to confirm, should we deliver the parcel on %s?", date)
}

func dateBooked(date string) string {
	return fmt.Sprintf("Your delivery has been scheduled for %s. Thank you for your time.", date)
}

func confirmNeighbor(name string) string {
	return fmt.Sprintf("Just to confirm, we will deliver the parcel to %s. "+
		"Please make sure to inform them about this delivery. "+
		"Should I proceed?", name)
}

// ClosingRemark is the reply to every utterance once the call has closed.
func ClosingRemark() string {
	return msgClose
}
