package gridsync

var (
	UDPBytesRead        int
	UDPBytesWritten     int
	UDPMessagesReceived int
	UDPMessagesSent     int
)

func clearStatistics() {
	UDPBytesRead = 0
	UDPBytesWritten = 0
	UDPMessagesReceived = 0
	UDPMessagesSent = 0
}

func printStatistics(logger Logger) {
	logger.Infof("Statistics: UDP: %d bytes read, %d bytes written.", UDPBytesRead, UDPBytesWritten)
	logger.Infof("Statistics: UDP: %d messages received, %d messages sent.", UDPMessagesReceived, UDPMessagesSent)
}
