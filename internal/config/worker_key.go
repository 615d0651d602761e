package config

type WorkerKeyStruct struct {
	PersistTurnsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistTurnsQueue: "persist_turns_queue",
}
