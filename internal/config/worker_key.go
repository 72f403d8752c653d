package config

type WorkerKeyStruct struct {
	SummaryQueue string
}

var WorkerKey = &WorkerKeyStruct{
	SummaryQueue: "summary_queue",
}
