package session

import "github.com/saravenpi/firewood/internal/models"

const DefaultDate = "2025-01-12"

// DefaultMessages returns a fresh copy of the seed conversation.
func DefaultMessages() []models.Message {
	return []models.Message{
		{ID: 1, Text: "아 TSLL 좀 사고 싶은데 개비싸노", Sender: true, Time: "14:23"},
		{ID: 2, Text: "좋은 생각 있는데, 해보실", Sender: false, Time: "14:23"},
		{ID: 3, Text: "먼데", Sender: true, Time: "14:24"},
		{ID: 4, Text: "우리 둘이 존나 싸우는거임ㅋㅋ", Sender: false, Time: "14:24"},
		{ID: 5, Text: "차트 존나 재밌을 듯?", Sender: false, Time: "14:24"},
		{ID: 6, Text: "ㅅㅂㅋㅋ", Sender: true, Time: "14:25"},
	}
}

func DefaultSenderProfile() models.Profile {
	return models.Profile{Name: "RealDonaldTrump", Image: "images/profiles/trump.png"}
}

func DefaultReceiverProfile() models.Profile {
	return models.Profile{Name: "ElonMusk", Image: "images/profiles/ElonMusk.png"}
}

func DefaultDeviceSettings() models.DeviceSettings {
	return models.DeviceSettings{Time: "5:12", BatteryLevel: 34}
}
