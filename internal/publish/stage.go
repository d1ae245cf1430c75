package publish

// Stage names one step of the publish pipeline. Stages advance in a fixed
// order and a run is terminal at the first stage that fails.
type Stage string

const (
	StageIdle                Stage = "Idle"
	StageAwaitingPreSecretTx Stage = "AwaitingPreSecretTx"
	StageAwaitingSecretEvent Stage = "AwaitingSecretEvent"
	StageEncrypting          Stage = "Encrypting"
	StageUploadingMedia      Stage = "UploadingMedia"
	StageUploadingMetadata   Stage = "UploadingMetadata"
	StagePosting             Stage = "Posting"
	StageAssociating         Stage = "Associating"
	StageComplete            Stage = "Complete"
)

func (s Stage) String() string { return string(s) }
