package va

// Driver is a raw connection to a VA driver. Implementations are not
// required to be safe for concurrent use: every call goes through
// Display, which serializes them.
type Driver interface {
	GetConfigAttributes(profile Profile, entrypoint Entrypoint, attribs []ConfigAttrib) Status
	CreateConfig(profile Profile, entrypoint Entrypoint, attribs []ConfigAttrib) (ID, Status)
	DestroyConfig(config ID) Status
	CreateContext(config ID, width, height int, flag int32, renderTargets []ID) (ID, Status)
	DestroyContext(context ID) Status
	CreateSurfaces(rtFormat uint32, width, height uint, count int) ([]ID, Status)
	DestroySurfaces(surfaces []ID) Status
}
