package config

const (
	// TopicIngestItem carries one normalized content item per message.
	TopicIngestItem = "esg.ingest.item"

	// ChannelIngestWorker is the consumer channel shared by ingest workers.
	ChannelIngestWorker = "ingestor"
)
