package types

import "regexp"

type TableName string

func (s TableName) Name() string {
	return string(s)
}

const (
	TABLE_KNOWLEDGE_SOURCES       = TableName("knowledge_sources")
	TABLE_KNOWLEDGE_DOCUMENTS     = TableName("knowledge_documents")
	TABLE_KNOWLEDGE_CHUNKS        = TableName("knowledge_chunks")
	TABLE_KNOWLEDGE_ENTITIES      = TableName("knowledge_entities")
	TABLE_KNOWLEDGE_RELATIONS     = TableName("knowledge_relations")
	TABLE_KNOWLEDGE_ENTITY_CHUNKS = TableName("knowledge_entity_chunks")
	TABLE_YOUTUBE_VIDEOS          = TableName("youtube_videos")
)

const (
	VIEW_YOUTUBE_KNOWLEDGE       = TableName("youtube_knowledge")
	VIEW_DOCUMENTATION_KNOWLEDGE = TableName("documentation_knowledge")
)

// ExpectedTables verify 阶段需要检查的数据表
var ExpectedTables = []TableName{
	TABLE_KNOWLEDGE_SOURCES,
	TABLE_KNOWLEDGE_DOCUMENTS,
	TABLE_KNOWLEDGE_CHUNKS,
	TABLE_KNOWLEDGE_ENTITIES,
	TABLE_KNOWLEDGE_RELATIONS,
	TABLE_KNOWLEDGE_ENTITY_CHUNKS,
	TABLE_YOUTUBE_VIDEOS,
}

var ExpectedViews = []TableName{
	VIEW_YOUTUBE_KNOWLEDGE,
	VIEW_DOCUMENTATION_KNOWLEDGE,
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier 表名、列名只允许字母数字与下划线
func ValidIdentifier(name string) bool {
	return len(name) <= 63 && identifierPattern.MatchString(name)
}
