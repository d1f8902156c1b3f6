package apptype

// ProjectArgs provides a standard way to pass project context to tools.
type ProjectArgs struct {
	ProjectName string `json:"projectName,omitempty" jsonschema:"The name of the project to operate on. If not provided, the default project is used."`
}

// LinkCandidatesArgs represents the arguments for the link_candidates tool.
type LinkCandidatesArgs struct {
	ProjectArgs   ProjectArgs `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	RepositoryID  string      `json:"repositoryId,omitempty" jsonschema:"Restrict the search to a single knowledge base. If empty, all enabled knowledge bases of the project are queried."`
	Scope         string      `json:"scope,omitempty" jsonschema:"Concept identifier restricting candidates to its descendants."`
	ValueType     string      `json:"valueType,omitempty" jsonschema:"Kind of entity sought: any-object, concept, instance or property (default any-object)."`
	Query         string      `json:"query" jsonschema:"The free-text query typed by the user."`
	Mention       string      `json:"mention,omitempty" jsonschema:"The span of source text the user selected, used as an additional disambiguation signal."`
	MentionOffset int         `json:"mentionOffset,omitempty" jsonschema:"Character offset of the mention in the document text."`
	DocumentText  string      `json:"documentText,omitempty" jsonschema:"Document text surrounding the mention, used for context features."`
}

// SearchItemsArgs represents the arguments for the search_items tool.
type SearchItemsArgs struct {
	ProjectArgs  ProjectArgs `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	RepositoryID string      `json:"repositoryId" jsonschema:"The knowledge base to search."`
	Query        string      `json:"query" jsonschema:"The free-text query."`
}

// LinkResult is the structured result of link_candidates and search_items.
type LinkResult struct {
	Candidates []Handle `json:"candidates"`
	Outcome    Outcome  `json:"outcome"`
}

// CreateItemsArgs represents the arguments for the create_items tool.
type CreateItemsArgs struct {
	ProjectArgs  ProjectArgs `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	RepositoryID string      `json:"repositoryId" jsonschema:"The knowledge base to write to. Must not be read-only."`
	Items        []Item      `json:"items" jsonschema:"A list of items to create or update."`
}

// CreateLinksArgs represents the arguments for the create_links tool.
type CreateLinksArgs struct {
	ProjectArgs  ProjectArgs `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	RepositoryID string      `json:"repositoryId" jsonschema:"The knowledge base to write to. Must not be read-only."`
	Links        []Link      `json:"links" jsonschema:"Hierarchy edges to create (subclass-of or instance-of)."`
}

// DeleteItemArgs represents the arguments for the delete_item tool.
type DeleteItemArgs struct {
	ProjectArgs  ProjectArgs `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	RepositoryID string      `json:"repositoryId" jsonschema:"The knowledge base to write to. Must not be read-only."`
	Identifier   string      `json:"identifier" jsonschema:"Identifier of the item to delete."`
}

// HealthArgs represents the arguments for the health tool.
type HealthArgs struct{}
