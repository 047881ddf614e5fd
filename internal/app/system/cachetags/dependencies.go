package cachetags

// Scope says whether a tag covers a whole tenant-level collection or one
// entity (a study set and the things attached to it).
type Scope int

const (
	Collection Scope = iota
	Entity
)

// Dep is one tag a read registers or a mutation invalidates.
type Dep struct {
	Kind  Kind
	Scope Scope
}

// resolve turns deps into concrete tags for tenantID. entityID is used for
// Entity-scoped deps and ignored for Collection-scoped ones.
func resolve(deps []Dep, tenantID, entityID string) []string {
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		id := ""
		if d.Scope == Entity {
			id = entityID
		}
		out = append(out, DeriveTag(d.Kind, tenantID, id))
	}
	return out
}

// Read names a cached read function.
type Read string

const (
	ReadListStudySets    Read = "ListStudySets"
	ReadGetStudySet      Read = "GetStudySet"
	ReadListImages       Read = "ListImages"
	ReadListNotes        Read = "ListNotes"
	ReadListComments     Read = "ListComments"
	ReadListTasks        Read = "ListTasks"
	ReadListTags         Read = "ListTags"
	ReadListFavorites    Read = "ListFavorites"
	ReadListWebhooks     Read = "ListWebhooks"
	ReadListInvitations  Read = "ListInvitations"
	ReadGetStudyGroup    Read = "GetStudyGroup"
	ReadDashboardSummary Read = "DashboardSummary"
)

// Write names a mutation.
type Write string

const (
	WriteCreateStudySet        Write = "CreateStudySet"
	WriteUpdateStudySetDetails Write = "UpdateStudySetDetails"
	WriteDeleteStudySet        Write = "DeleteStudySet"
	WriteSetStudySetTags       Write = "SetStudySetTags"
	WriteAddFavorite           Write = "AddFavorite"
	WriteRemoveFavorite        Write = "RemoveFavorite"
	WriteAddImage              Write = "AddImage"
	WriteDeleteImage           Write = "DeleteImage"
	WriteCreateNote            Write = "CreateNote"
	WriteUpdateNote            Write = "UpdateNote"
	WriteDeleteNote            Write = "DeleteNote"
	WriteCreateComment         Write = "CreateComment"
	WriteUpdateComment         Write = "UpdateComment"
	WriteDeleteComment         Write = "DeleteComment"
	WriteCreateTask            Write = "CreateTask"
	WriteUpdateTask            Write = "UpdateTask"
	WriteDeleteTask            Write = "DeleteTask"
	WriteCreateTag             Write = "CreateTag"
	WriteUpdateTag             Write = "UpdateTag"
	WriteDeleteTag             Write = "DeleteTag"
	WriteUpdateStudyGroup      Write = "UpdateStudyGroup"
	WriteCreateWebhook         Write = "CreateWebhook"
	WriteUpdateWebhook         Write = "UpdateWebhook"
	WriteDeleteWebhook         Write = "DeleteWebhook"
	WriteCreateInvitation      Write = "CreateInvitation"
	WriteResendInvitation      Write = "ResendInvitation"
	WriteDeleteInvitation      Write = "DeleteInvitation"
	WriteJoin                  Write = "Join"
)

var (
	coll = func(k Kind) Dep { return Dep{Kind: k, Scope: Collection} }
	ent  = func(k Kind) Dep { return Dep{Kind: k, Scope: Entity} }
)

// Reads declares the tags each read registers. For per-set child lists the
// entity is the parent study set.
var Reads = map[Read][]Dep{
	ReadListStudySets:    {coll(StudySets)},
	ReadGetStudySet:      {ent(StudySet), coll(Tags)},
	ReadListImages:       {ent(Images)},
	ReadListNotes:        {ent(Notes)},
	ReadListComments:     {ent(Comments)},
	ReadListTasks:        {ent(Tasks)},
	ReadListTags:         {coll(Tags)},
	ReadListFavorites:    {coll(Favorites)},
	ReadListWebhooks:     {coll(Webhooks)},
	ReadListInvitations:  {coll(Invitations)},
	ReadGetStudyGroup:    {coll(StudyGroup)},
	ReadDashboardSummary: {coll(Dashboard)},
}

// Writes declares the tags each mutation invalidates. The entity for
// study-set and child mutations is the affected study set.
var Writes = map[Write][]Dep{
	WriteCreateStudySet:        {coll(StudySets), coll(Favorites), coll(Dashboard)},
	WriteUpdateStudySetDetails: {coll(StudySets), ent(StudySet), coll(Favorites)},
	WriteDeleteStudySet: {
		coll(StudySets), ent(StudySet), coll(Favorites), coll(Dashboard),
		ent(Images), ent(Notes), ent(Comments), ent(Tasks),
	},
	WriteSetStudySetTags: {coll(StudySets), ent(StudySet), coll(Favorites)},
	WriteAddFavorite:     {coll(StudySets), ent(StudySet), coll(Favorites), coll(Dashboard)},
	WriteRemoveFavorite:  {coll(StudySets), ent(StudySet), coll(Favorites), coll(Dashboard)},
	WriteAddImage:        {ent(Images)},
	WriteDeleteImage:     {ent(Images)},
	WriteCreateNote:      {ent(Notes)},
	WriteUpdateNote:      {ent(Notes)},
	WriteDeleteNote:      {ent(Notes)},
	WriteCreateComment:   {ent(Comments)},
	WriteUpdateComment:   {ent(Comments)},
	WriteDeleteComment:   {ent(Comments)},
	WriteCreateTask:      {ent(Tasks), coll(Dashboard)},
	WriteUpdateTask:      {ent(Tasks), coll(Dashboard)},
	WriteDeleteTask:      {ent(Tasks), coll(Dashboard)},
	WriteCreateTag:       {coll(Tags)},
	WriteUpdateTag:       {coll(Tags)},
	// Deleting a tag also pulls it from every study set.
	WriteDeleteTag:        {coll(Tags), coll(StudySets), coll(Favorites)},
	WriteUpdateStudyGroup: {coll(StudyGroup)},
	WriteCreateWebhook:    {coll(Webhooks)},
	WriteUpdateWebhook:    {coll(Webhooks)},
	WriteDeleteWebhook:    {coll(Webhooks)},
	WriteCreateInvitation: {coll(Invitations), coll(Dashboard)},
	WriteResendInvitation: {coll(Invitations)},
	WriteDeleteInvitation: {coll(Invitations), coll(Dashboard)},
	WriteJoin:             {coll(Invitations), coll(Dashboard)},
}

// ReadTags returns the concrete tags read r registers.
func ReadTags(r Read, tenantID, entityID string) []string {
	return resolve(Reads[r], tenantID, entityID)
}

// WriteTags returns the concrete tags mutation w invalidates.
func WriteTags(w Write, tenantID, entityID string) []string {
	return resolve(Writes[w], tenantID, entityID)
}
