package mqtt

import "fmt"

// Topic returns coopdoor/<clientID>/<leaf>.
func Topic(clientID, leaf string) string {
	return fmt.Sprintf("coopdoor/%s/%s", clientID, leaf)
}

// CommandTopic carries remote command lines to the door.
func CommandTopic(clientID string) string {
	return Topic(clientID, "command")
}

// AvailabilityTopic holds the retained online/offline status.
func AvailabilityTopic(clientID string) string {
	return Topic(clientID, "availability")
}
