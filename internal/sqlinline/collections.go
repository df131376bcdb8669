package sqlinline

const QSelectCollectionByID = `--sql 0f6b82d5-3ac1-4e97-b248-c95d10a7f36e
select id, name, asset_ids
from collections
where id = $1::uuid
limit 1;
`
